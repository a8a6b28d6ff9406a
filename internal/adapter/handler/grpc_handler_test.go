package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestGRPCHealth_FollowsDatabase(t *testing.T) {
	tests := []struct {
		name string
		db   Pinger
		want healthpb.HealthCheckResponse_ServingStatus
	}{
		{"no database", nil, healthpb.HealthCheckResponse_SERVING},
		{"database up", fakePinger{}, healthpb.HealthCheckResponse_SERVING},
		{"database down", fakePinger{err: errors.New("refused")}, healthpb.HealthCheckResponse_NOT_SERVING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGRPCHealth("compras", tt.db, time.Hour, nil)
			h.check(context.Background())

			for _, svc := range []string{"", "compras"} {
				resp, err := h.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
				require.NoError(t, err)
				assert.Equal(t, tt.want, resp.GetStatus())
			}
		})
	}
}

func TestGRPCHealth_RunStopsOnCancel(t *testing.T) {
	h := NewGRPCHealth("compras", fakePinger{}, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	resp, err := h.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "compras"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
