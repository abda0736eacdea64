package cmtgrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/honeycombio/libhoney-go/transmission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/propagation"
)

func setupClient(t *testing.T) *transmission.MockSender {
	mo := &transmission.MockSender{}
	require.NoError(t, client.Init(client.Config{Transmission: mo}))
	t.Cleanup(client.Close)
	return mo
}

func TestAnnotate(t *testing.T) {
	// no metadata at all
	ctx := annotate(context.Background(), "/flavors.Menu/List", nil)
	assert.Equal(t, "grpc /flavors.Menu/List", sqlcomment.CommentFromContext(ctx))

	// honeycomb header in metadata
	ctx = metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		"x-honeycomb-trace": "1;trace_id=4bf92f3577b34da6a3ce929d0e0e473,parent_id=00f067aa0ba902b7,context=",
	}))
	ctx = annotate(ctx, "/flavors.Menu/List", nil)
	assert.Equal(t, "grpc /flavors.Menu/List; trace_id=4bf92f3577b34da6a3ce929d0e0e473 parent_id=00f067aa0ba902b7",
		sqlcomment.CommentFromContext(ctx))

	// a parser hook wins over the metadata
	hook := func(ctx context.Context) *propagation.PropagationContext {
		return &propagation.PropagationContext{
			TraceID:  "fffffffffffffffffffffffffffffff",
			ParentID: "aaaaaaaaaaaaaaaa",
		}
	}
	ctx = annotate(context.Background(), "/flavors.Menu/List", hook)
	assert.Equal(t, "grpc /flavors.Menu/List; trace_id=fffffffffffffffffffffffffffffff parent_id=aaaaaaaaaaaaaaaa",
		sqlcomment.CommentFromContext(ctx))

	// a hook that finds nothing adds nothing
	ctx = annotate(context.Background(), "/flavors.Menu/List", func(context.Context) *propagation.PropagationContext { return nil })
	assert.Equal(t, "grpc /flavors.Menu/List", sqlcomment.CommentFromContext(ctx))
}

func TestUnaryInterceptor(t *testing.T) {
	mo := setupClient(t)

	md := metadata.New(map[string]string{
		"content-type":      "application/grpc",
		":authority":        "api.honeycomb.io:443",
		"user-agent":        "testing-is-fun",
		"X-Forwarded-For":   "10.11.12.13", // headers are Kabob-Title-Case from clients
		"X-Forwarded-Proto": "https",
		"traceparent":       "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	var seen interface{}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = sqlcomment.CommentFromContext(ctx)
		return req, nil
	}
	info := &grpc.UnaryServerInfo{
		FullMethod: "/flavors.Menu/List",
	}
	resp, err := UnaryServerInterceptor()(ctx, "req", info, handler)
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	want := "grpc /flavors.Menu/List; trace_id=0af7651916cd43dd8448eb211c80319c parent_id=b7ad6b7169203331"
	assert.Equal(t, want, seen)

	evs := mo.Events()
	require.Len(t, evs, 1, "1 event is created")
	fields := evs[0].Data
	assert.Equal(t, "application/grpc", fields["request.content_type"])
	assert.Equal(t, "api.honeycomb.io:443", fields["request.header.authority"])
	assert.Equal(t, "testing-is-fun", fields["request.header.user_agent"])
	assert.Equal(t, "10.11.12.13", fields["request.header.x_forwarded_for"])
	assert.Equal(t, "https", fields["request.header.x_forwarded_proto"])
	assert.Equal(t, "/flavors.Menu/List", fields["handler.method"])
	assert.Equal(t, want, fields["sqlcomment.comment"])
	assert.Equal(t, codes.OK, fields["response.grpc_status_code"])
}

func TestUnaryInterceptorError(t *testing.T) {
	mo := setupClient(t)
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "no such flavor")
	}
	_, err := UnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/flavors.Menu/Get"}, handler)
	assert.Equal(t, codes.NotFound, status.Code(err))

	evs := mo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, codes.NotFound, evs[0].Data["response.grpc_status_code"])
	assert.Contains(t, evs[0].Data["handler_error"], "no such flavor")

	// plain errors map to Unknown
	handler = func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	}
	_, err = UnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/flavors.Menu/Get"}, handler)
	assert.Error(t, err)
	assert.Equal(t, codes.Unknown, mo.Events()[1].Data["response.grpc_status_code"])
}
