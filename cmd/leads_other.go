//go:build !unix

// cmd/leads_other.go
package cmd

import (
	"context"
	"log/slog"
)

// watchLeadToggle is a no-op without SIGUSR1.
func watchLeadToggle(context.Context, leadSwitcher, *slog.Logger) func() {
	return func() {}
}
