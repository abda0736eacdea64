package cmtgrpc

import (
	"context"
	"reflect"
	"runtime"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/propagation"
	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// Config customizes the interceptor.
type Config struct {
	// ParserHook, if set, replaces the built-in search of the incoming
	// metadata for trace context.
	ParserHook func(ctx context.Context) *propagation.PropagationContext
}

// getMetadataStringValue returns the first value for key, or the empty string.
func getMetadataStringValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// annotate puts the comment for method, and any trace ids, on ctx.
func annotate(ctx context.Context, method string, hook func(context.Context) *propagation.PropagationContext) context.Context {
	comment := "grpc " + method
	if hook != nil {
		ctx = sqlcomment.AppendComment(ctx, comment)
		return sqlcomment.AppendComment(ctx, hook(ctx).Comment())
	}
	md, _ := metadata.FromIncomingContext(ctx)
	return common.Annotate(ctx, comment, func(key string) string {
		return getMetadataStringValue(md, key)
	})
}

// requestFields gathers what the incoming metadata says about a call.
func requestFields(ctx context.Context, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) map[string]interface{} {
	handlerName := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
	fields := map[string]interface{}{
		"meta.type":      "grpc_request",
		"handler.name":   handlerName,
		"handler.method": info.FullMethod,
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return fields
	}
	for key, field := range map[string]string{
		"content-type":      "request.content_type",
		":authority":        "request.header.authority",
		"user-agent":        "request.header.user_agent",
		"x-forwarded-for":   "request.header.x_forwarded_for",
		"x-forwarded-proto": "request.header.x_forwarded_proto",
	} {
		if val := getMetadataStringValue(md, key); val != "" {
			fields[field] = val
		}
	}
	return fields
}

// UnaryServerInterceptor annotates each call using the default Config.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return UnaryServerInterceptorWithConfig(Config{})
}

// UnaryServerInterceptorWithConfig will put a comment on the context of, and
// send an event for, every call made through the returned interceptor.
func UnaryServerInterceptorWithConfig(cfg Config) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx = annotate(ctx, info.FullMethod, cfg.ParserHook)
		ev := common.NewEvent(ctx, requestFields(ctx, info, handler))
		defer ev.Send()

		resp, err := handler(ctx, req)
		if err != nil {
			ev.AddField("handler_error", err.Error())
		}
		ev.AddField("response.grpc_status_code", status.Code(err))
		return resp, err
	}
}
