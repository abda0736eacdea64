// Package cmthttprouter annotates requests served by the httprouter muxer.
//
// Summary
//
// httprouter does not tell a handle which path it was registered under, so
// cmthttprouter takes it at registration time. Either wrap each handle with
// Middleware, passing the same path you register it under, or build the
// router with New and register on it as usual; every handle is then wrapped
// for you. Each request carries a comment such as
//
//	/* GET /hello/:name */
//
// and sends one event with the route parameters attached.
package cmthttprouter
