//go:build unix

// cmd/leads_unix.go
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// watchLeadToggle flips the leads-off state on every SIGUSR1 until ctx ends.
func watchLeadToggle(ctx context.Context, ls leadSwitcher, logger *slog.Logger) func() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-quit:
				return
			case <-sig:
				off := !ls.LeadsOff()
				ls.Set(off)
				logger.Info("leads toggled", "leads_off", off)
			}
		}
	}()

	return func() {
		signal.Stop(sig)
		close(quit)
		<-done
	}
}
