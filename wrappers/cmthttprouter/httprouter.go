package cmthttprouter

import (
	"net/http"
	"reflect"
	"runtime"

	"github.com/julienschmidt/httprouter"

	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// Middleware wraps a handle registered under path.
func Middleware(path string, handle httprouter.Handle) httprouter.Handle {
	handleName := runtime.FuncForPC(reflect.ValueOf(handle).Pointer()).Name()
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		r, ev := common.StartRequest(r, path)
		defer ev.Send()
		// pull out any variables in the URL
		for _, param := range ps {
			ev.AddField("handler.vars."+param.Key, param.Value)
		}
		ev.AddField("handler.name", handleName)
		// replace the writer with our wrapper to catch the status code
		wrappedWriter := common.NewResponseWriter(w)

		handle(wrappedWriter.ResponseWriter, r, ps)

		ev.AddField("response.status_code", wrappedWriter.StatusOrOK())
	}
}

// Router is an httprouter.Router whose Handle and method shortcuts wrap every
// handle with Middleware.
type Router struct {
	*httprouter.Router
}

// New returns a Router around a fresh httprouter.Router.
func New() *Router {
	return &Router{Router: httprouter.New()}
}

func (r *Router) Handle(method, path string, handle httprouter.Handle) {
	r.Router.Handle(method, path, Middleware(path, handle))
}

func (r *Router) GET(path string, handle httprouter.Handle) {
	r.Handle(http.MethodGet, path, handle)
}

func (r *Router) HEAD(path string, handle httprouter.Handle) {
	r.Handle(http.MethodHead, path, handle)
}

func (r *Router) POST(path string, handle httprouter.Handle) {
	r.Handle(http.MethodPost, path, handle)
}

func (r *Router) PUT(path string, handle httprouter.Handle) {
	r.Handle(http.MethodPut, path, handle)
}

func (r *Router) PATCH(path string, handle httprouter.Handle) {
	r.Handle(http.MethodPatch, path, handle)
}

func (r *Router) DELETE(path string, handle httprouter.Handle) {
	r.Handle(http.MethodDelete, path, handle)
}
