// internal/telemetry/nats.go
package telemetry

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultWaveBatch is 100 ms of samples per wave message.
const DefaultWaveBatch = 36

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// BeatEvent is published as JSON on every detected beat and on leads-off changes.
type BeatEvent struct {
	Session  string    `json:"session"`
	Tick     uint32    `json:"tick"`
	BPM      int       `json:"bpm"`
	Status   string    `json:"status"`
	LeadsOff bool      `json:"leads_off"`
	Time     time.Time `json:"time"`
}

// NATSSink streams raw samples in little-endian uint16 batches on "<subject>.wave"
// and beat events as JSON on "<subject>.beat".
type NATSSink struct {
	pub      Publisher
	subject  string
	session  string
	batch    int
	wave     []byte
	leadsOff bool
	now      func() time.Time
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("qrsdetect"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// NewNATSSink publishes under subject. batch <= 0 uses DefaultWaveBatch.
func NewNATSSink(pub Publisher, subject string, batch int) *NATSSink {
	if batch <= 0 {
		batch = DefaultWaveBatch
	}
	return &NATSSink{
		pub:     pub,
		subject: subject,
		session: uuid.NewString(),
		batch:   batch,
		wave:    make([]byte, 0, 2*batch),
		now:     time.Now,
	}
}

// Session identifies this run in every beat event.
func (s *NATSSink) Session() string {
	return s.session
}

func (s *NATSSink) Send(fr Frame) error {
	s.wave = binary.LittleEndian.AppendUint16(s.wave, fr.Raw)
	if len(s.wave) >= 2*s.batch {
		err := s.pub.Publish(s.subject+".wave", s.wave)
		s.wave = s.wave[:0]
		if err != nil {
			return fmt.Errorf("publish wave: %w", err)
		}
	}

	if !fr.Beat && fr.LeadsOff == s.leadsOff {
		return nil
	}
	s.leadsOff = fr.LeadsOff
	ev := BeatEvent{
		Session:  s.session,
		Tick:     fr.Tick,
		BPM:      fr.BPM,
		Status:   Classify(fr.BPM).String(),
		LeadsOff: fr.LeadsOff,
		Time:     s.now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode beat event: %w", err)
	}
	if err := s.pub.Publish(s.subject+".beat", data); err != nil {
		return fmt.Errorf("publish beat: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	return s.pub.Drain()
}
