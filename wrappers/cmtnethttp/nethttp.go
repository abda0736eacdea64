package cmtnethttp

import (
	"net/http"
	"reflect"
	"runtime"

	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// WrapHandler will annotate and send an event for each request served by
// handler. If handler is a *http.ServeMux the matched pattern is used for the
// comment.
func WrapHandler(handler http.Handler) http.Handler {
	if mux, ok := handler.(*http.ServeMux); ok {
		return WrapMuxHandler(mux)
	}
	handlerName := handlerName(handler)
	wrappedHandler := func(w http.ResponseWriter, r *http.Request) {
		r, ev := common.StartRequest(r, handlerName)
		defer ev.Send()
		// replace the writer with our wrapper to catch the status code
		wrappedWriter := common.NewResponseWriter(w)
		// add the name of the handler func we're about to invoke
		ev.AddField("handler.name", handlerName)
		handler.ServeHTTP(wrappedWriter.ResponseWriter, r)
		ev.AddField("response.status_code", wrappedWriter.StatusOrOK())
	}
	return http.HandlerFunc(wrappedHandler)
}

// WrapHandlerFunc will annotate and send an event for each request handled by
// hf.
func WrapHandlerFunc(hf func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	handlerFuncName := runtime.FuncForPC(reflect.ValueOf(hf).Pointer()).Name()
	return func(w http.ResponseWriter, r *http.Request) {
		r, ev := common.StartRequest(r, handlerFuncName)
		defer ev.Send()
		wrappedWriter := common.NewResponseWriter(w)
		ev.AddField("handler_func_name", handlerFuncName)
		hf(wrappedWriter.ResponseWriter, r)
		ev.AddField("response.status_code", wrappedWriter.StatusOrOK())
	}
}

// WrapMuxHandler wraps an http.ServeMux and returns an http.Handler. It is
// intended to be used to wrap a ServeMux when it is passed to
// http.ListenAndServe after all the handlers have been added to the ServeMux.
func WrapMuxHandler(mux *http.ServeMux) http.Handler {
	wrappedHandler := func(w http.ResponseWriter, r *http.Request) {
		handler, pat := mux.Handler(r)
		r, ev := common.StartRequest(r, pat)
		defer ev.Send()
		wrappedWriter := common.NewResponseWriter(w)
		ev.AddField("mux.handler.pattern", pat)
		ev.AddField("mux.handler.type", reflect.TypeOf(handler).String())
		ev.AddField("mux.handler.name", handlerName(handler))
		mux.ServeHTTP(wrappedWriter.ResponseWriter, r)
		ev.AddField("response.status_code", wrappedWriter.StatusOrOK())
	}
	return http.HandlerFunc(wrappedHandler)
}

func handlerName(h http.Handler) string {
	v := reflect.ValueOf(h)
	if v.Kind() != reflect.Func {
		return reflect.TypeOf(h).String()
	}
	if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
		return fn.Name()
	}
	return ""
}
