package infra

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerShutdownMakesStartReturnServerClosed(t *testing.T) {
	cfg := &Config{Port: "0", HTTPIdleTimeout: time.Second}
	srv := NewHTTPServer(cfg, http.NewServeMux())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
