package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vouch/internal/platform/config"
)

func TestSetupIsNoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Tracing{Enabled: true, ServiceName: "vouch"}, "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetupIsNoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Tracing{
		Endpoint: "http://localhost:4318", Enabled: false, ServiceName: "vouch",
	}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupInstallsProvider(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation and never routes.
	shutdown, err := Setup(context.Background(), config.Tracing{
		Endpoint: "http://192.0.2.1:4318", Enabled: true, ServiceName: "vouch", SampleRatio: 1,
	}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
