// Package common holds what the HTTP and gRPC wrappers share: the comment
// each request puts on its context and the one event each request sends.
package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	libhoney "github.com/honeycombio/libhoney-go"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/propagation"
	"github.com/honeycombio/sqlcomment-go/timer"
)

type ResponseWriter struct {
	http.ResponseWriter
	Status int
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	rw := &ResponseWriter{}
	rw.ResponseWriter = httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				if rw.Status == 0 {
					rw.Status = code
				}
				next(code)
			}
		},
	})
	return rw
}

// StatusOrOK returns the status written so far, or 200 if the handler never
// wrote one.
func (h *ResponseWriter) StatusOrOK() int {
	if h.Status == 0 {
		return http.StatusOK
	}
	return h.Status
}

// GetRequestProps is a convenient method to grab all common http request
// properties and get them back as a map.
func GetRequestProps(req *http.Request) map[string]interface{} {
	reqProps := make(map[string]interface{})
	// identify the type of event
	reqProps["meta.type"] = "http_request"
	// Add a variety of details about the HTTP request, such as user agent
	// and method, to any created libhoney event.
	reqProps["request.method"] = req.Method
	reqProps["request.path"] = req.URL.Path
	reqProps["request.host"] = req.Host
	reqProps["request.http_version"] = req.Proto
	reqProps["request.content_length"] = req.ContentLength
	reqProps["request.remote_addr"] = req.RemoteAddr
	reqProps["request.header.user_agent"] = req.UserAgent()
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		reqProps["request.header.x_forwarded_for"] = fwd
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		reqProps["request.header.x_forwarded_proto"] = proto
	}
	return reqProps
}

// Annotate adds comment to ctx, followed by the trace and parent ids of any
// trace context that get can find.
func Annotate(ctx context.Context, comment string, get propagation.Getter) context.Context {
	ctx = sqlcomment.AppendComment(ctx, comment)
	if prop := propagation.FromHeaders(get); prop != nil {
		ctx = sqlcomment.AppendComment(ctx, prop.Comment())
	}
	return ctx
}

// RouteComment is the comment for a request matched to route: the method
// followed by the route. Go 1.22 ServeMux patterns may already start with the
// method, and those are used as they are.
func RouteComment(method, route string) string {
	switch {
	case route == "":
		return method
	case strings.HasPrefix(route, method+" "):
		return route
	default:
		return method + " " + route
	}
}

// Event is the one event sent for each request.
type Event struct {
	ev    *libhoney.Event
	timer timer.Timer
}

// NewEvent starts the timer for a request event and records fields on it,
// along with the comment ctx carries.
func NewEvent(ctx context.Context, fields map[string]interface{}) *Event {
	ev := client.NewBuilder().NewEvent()
	for k, v := range fields {
		ev.AddField(k, v)
	}
	if cmt := sqlcomment.CommentFromContext(ctx); !sqlcomment.Blank(cmt) {
		ev.AddField("sqlcomment.comment", sqlcomment.Stringify(cmt))
	}
	return &Event{ev: ev, timer: timer.Start()}
}

func (e *Event) AddField(key string, val interface{}) {
	e.ev.AddField(key, val)
}

// Send records the duration and sends the event.
func (e *Event) Send() {
	e.ev.AddField("duration_ms", e.timer.Finish())
	e.ev.Send()
}

// StartRequest puts the comment for route on the request's context and starts
// its event. Callers serve the returned request and then call Send.
func StartRequest(r *http.Request, route string) (*http.Request, *Event) {
	ctx := Annotate(r.Context(), RouteComment(r.Method, route), r.Header.Get)
	ev := NewEvent(ctx, GetRequestProps(r))
	if route != "" {
		ev.AddField("handler.route", route)
	}
	return r.WithContext(ctx), ev
}
