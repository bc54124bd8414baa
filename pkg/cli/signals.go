package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is canceled when the process
// receives SIGINT or SIGTERM. The first signal triggers a graceful
// shutdown through the returned context; a second signal exits the
// process immediately so a stuck shutdown can still be interrupted from
// the terminal.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig.String())
		cancel()
		<-sigChan
		os.Exit(1)
	}()

	return ctx
}
