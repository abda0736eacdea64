package cmtgorilla

import (
	"net/http"
	"reflect"
	"runtime"

	"github.com/gorilla/mux"

	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// Middleware is a gorilla middleware that annotates requests and sends one
// event per request.
func Middleware(handler http.Handler) http.Handler {
	wrappedHandler := func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		r, ev := common.StartRequest(r, routeName(route))
		defer ev.Send()

		// replace the writer with our wrapper to catch the status code
		wrappedWriter := common.NewResponseWriter(w)
		// pull out any variables in the URL
		for k, v := range mux.Vars(r) {
			ev.AddField("gorilla.vars."+k, v)
		}
		if route != nil {
			chosenHandler := route.GetHandler()
			reflectHandler := reflect.ValueOf(chosenHandler)
			if reflectHandler.Kind() == reflect.Func {
				ev.AddField("handler.fnname", runtime.FuncForPC(reflectHandler.Pointer()).Name())
			}
			if typeOfHandler := reflect.TypeOf(chosenHandler); typeOfHandler != nil && typeOfHandler.Kind() == reflect.Struct {
				ev.AddField("handler.type", typeOfHandler.Name())
			}
			if name := route.GetName(); name != "" {
				ev.AddField("handler.name", name)
			}
		}
		handler.ServeHTTP(wrappedWriter.ResponseWriter, r)
		ev.AddField("response.status_code", wrappedWriter.StatusOrOK())
	}
	return http.HandlerFunc(wrappedHandler)
}

// routeName prefers user-supplied names over path templates.
func routeName(route *mux.Route) string {
	if route == nil {
		return ""
	}
	if name := route.GetName(); name != "" {
		return name
	}
	if path, err := route.GetPathTemplate(); err == nil {
		return path
	}
	return ""
}
