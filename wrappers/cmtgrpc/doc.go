// Package cmtgrpc has a unary server interceptor that puts a SQL comment
// naming the called method on each request's context.
//
// The comment is `grpc` followed by the full method name, plus the trace and
// parent ids of any `traceparent` or `x-honeycomb-trace` metadata:
//
//	/* grpc /flavors.Menu/List; trace_id=... parent_id=... */
//
// One event is sent per call.
package cmtgrpc
