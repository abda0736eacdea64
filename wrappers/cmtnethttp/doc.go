/*
Package cmtnethttp provides wrappers for net/http Handlers that put a SQL
comment naming the request on its context.

Summary

cmtnethttp provides wrappers for all the standard `net/http` types: Handler,
HandlerFunc, and ServeMux. The comment is the request method followed by the
matched ServeMux pattern, or by the handler's name when there is no mux, plus
the trace and parent ids of any incoming `traceparent` or `X-Honeycomb-Trace`
header. Database handles from cmtsql and cmtsqlx prepend it to every
statement run with the request's context.

For best results, wrap the mux passed to http.ListenAndServe - this will get you
an event and a comment for every HTTP request handled by the server.

Wrapping individual handlers or HandleFuncs will annotate only the endpoints
that are wrapped; 404s, for example, will not generate events.
*/
package cmtnethttp
