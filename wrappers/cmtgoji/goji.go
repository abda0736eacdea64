package cmtgoji

import (
	"net/http"
	"reflect"
	"runtime"

	"goji.io/v3/middleware"
	"goji.io/v3/pat"

	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// Middleware is specifically to use with goji's router.Use() function for
// inserting middleware
func Middleware(handler http.Handler) http.Handler {
	wrappedHandler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		// find any matched patterns
		var route string
		p, isPat := middleware.Pattern(ctx).(*pat.Pattern)
		if isPat {
			route = p.String()
		}
		r, ev := common.StartRequest(r, route)
		defer ev.Send()

		// get bits about the handler
		if h := middleware.Handler(ctx); h == nil {
			ev.AddField("handler.name", "http.NotFound")
		} else {
			ev.AddField("handler.type", reflect.TypeOf(h).String())
			if v := reflect.ValueOf(h); v.Kind() == reflect.Func {
				ev.AddField("handler.name", runtime.FuncForPC(v.Pointer()).Name())
			}
		}
		if isPat {
			ev.AddField("goji.pat", p.String())
			ev.AddField("goji.methods", p.HTTPMethods())
			ev.AddField("goji.path_prefix", p.PathPrefix())
		}

		// replace the writer with our wrapper to catch the status code
		wrappedWriter := common.NewResponseWriter(w)
		handler.ServeHTTP(wrappedWriter.ResponseWriter, r)
		ev.AddField("response.status_code", wrappedWriter.StatusOrOK())
	}
	return http.HandlerFunc(wrappedHandler)
}
