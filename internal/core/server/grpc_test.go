package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/datastreamer/internal/core/api"
	"github.com/solatis/datastreamer/internal/core/config"
	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	typ := dynamic.MustStruct("Imu",
		dynamic.Field("accel", dynamic.ArrayOf(dynamic.Primitive(types.KindFloat64), 3)),
		dynamic.Field("id", dynamic.Primitive(types.KindUint16)),
	)
	engine, err := introspect.NewEngine("imu", typ, types.ContainerPolicy{MaxSize: 100, Discard: true})
	require.NoError(t, err)

	cfg := config.DefaultConfig().Server
	cfg.DataDir = t.TempDir()
	svc, err := api.NewIntrospectionService(typ, engine, nil, &cfg, nil)
	require.NoError(t, err)

	srv, err := NewGRPCServer(&cfg, svc, nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewGRPCServer_Validation(t *testing.T) {
	_, err := NewGRPCServer(nil, nil, nil)
	assert.Error(t, err)

	cfg := config.DefaultConfig().Server
	_, err = NewGRPCServer(&cfg, nil, nil)
	assert.Error(t, err)
}

func TestGRPCServer_Health(t *testing.T) {
	conn := startServer(t)
	client := grpc_health_v1.NewHealthClient(conn)

	for _, service := range []string{"", "datastreamer.v1.Introspection"} {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status, service)
	}
}

func TestGRPCServer_Introspection(t *testing.T) {
	conn := startServer(t)
	client := api.NewIntrospectionClient(conn)
	ctx := context.Background()

	schema, err := client.GetSchema(ctx)
	require.NoError(t, err)
	m := schema.AsMap()
	assert.Equal(t, true, m["static"])
	assert.Len(t, m["numeric"], 4)

	sample, err := structpb.NewStruct(map[string]any{"accel": []any{0.1, 0.2, 9.8}, "id": 7})
	require.NoError(t, err)
	out, err := client.PushSample(ctx, sample)
	require.NoError(t, err)
	assert.Equal(t, []any{0.1, 0.2, 9.8, 7.0}, out.AsMap()["numeric"])

	bad, err := structpb.NewStruct(map[string]any{"id": -1})
	require.NoError(t, err)
	_, err = client.PushSample(ctx, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	batch, err := structpb.NewStruct(map[string]any{"samples": []any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
	}})
	require.NoError(t, err)
	out, err = client.PushSamples(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, float64(2), out.AsMap()["accepted"])
}
