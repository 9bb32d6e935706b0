package infra

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// A graceful shutdown makes Start return http.ErrServerClosed, which callers
// must recognize as a clean stop rather than a failure.
func TestHTTPServerShutdownReturnsServerClosed(t *testing.T) {
	cfg := &Config{
		Port:             "0",
		HTTPReadTimeout:  time.Second,
		HTTPWriteTimeout: time.Second,
		HTTPIdleTimeout:  time.Second,
	}
	server := NewHTTPServer(cfg, http.NewServeMux())

	started := make(chan error, 1)
	go func() {
		started <- server.Start()
	}()

	// Give the listener a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-started:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after shutdown")
	}
}
