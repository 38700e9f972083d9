package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesCast/pkg/config"
	xhttp "SalesCast/pkg/http"
	applogger "SalesCast/pkg/logger"
)

func TestServeStopsOnContextCancel(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	l := applogger.Nop()
	srv := xhttp.NewServer(l, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	app := New(cfg, l, nil, nil, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
