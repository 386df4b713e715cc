package shutdown

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/tabula-metadata-backend/pkg/lifecycle"
)

// Coordinator drives the graceful shutdown of the HTTP server and the
// background services registered with its lifecycle manager.
type Coordinator struct {
	Manager *lifecycle.Manager
}

// NewCoordinator creates a coordinator around an externally created
// lifecycle manager.
func NewCoordinator(manager *lifecycle.Manager) *Coordinator {
	return &Coordinator{Manager: manager}
}

// ListenForSignalsAndShutdown blocks until an interrupt or SIGTERM
// arrives, then shuts the server and background services down in
// order: stop accepting requests, let in-flight requests finish, stop
// the background loops.
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\nshutdown signal received, starting graceful shutdown...")

	httpTimeout := 15 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("HTTP server shutdown error: %v\n", err)
	} else {
		fmt.Println("HTTP server stopped")
	}

	gracefulTimeout := 30 * time.Second
	c.Manager.Shutdown()
	remaining := c.Manager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) == 0 {
		fmt.Println("all background services stopped")
	} else {
		fmt.Printf("shutdown timeout: services still running: %v\n", remaining)
	}

	fmt.Println("graceful shutdown complete")
}
