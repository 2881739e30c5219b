package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/unicastdhcp/pkg/component"
	"github.com/veesix-networks/unicastdhcp/pkg/events"
	"github.com/veesix-networks/unicastdhcp/pkg/events/local"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestNewRequiresBus(t *testing.T) {
	_, err := New(component.Dependencies{}, "127.0.0.1:0")
	assert.Error(t, err)
}

func TestHealthTracksServerLocation(t *testing.T) {
	bus := local.NewBus()
	defer bus.Close()

	gw, err := New(component.Dependencies{EventBus: bus}, "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, gw.Start(context.Background()))
	defer gw.Stop(context.Background())

	conn, err := grpc.NewClient(gw.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName))

	bus.Publish(events.TopicServerLocation, events.Event{
		Data: events.ServerLocationEvent{AppName: "nctu.winlab.unicastdhcp", Location: "of:0000000000000001/1"},
	})
	assert.Eventually(t, func() bool {
		return check(ServiceName) == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "of:0000000000000001/1", gw.Location())

	bus.Publish(events.TopicServerLocation, events.Event{
		Data: events.ServerLocationEvent{AppName: "nctu.winlab.unicastdhcp"},
	})
	assert.Eventually(t, func() bool {
		return check(ServiceName) == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)
}
