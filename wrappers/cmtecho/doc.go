// Package cmtecho has middleware to use with the Echo router.
//
// Summary
//
// cmtecho puts a comment naming the matched Echo route on each request's
// context and sends one event per request with basic http fields and route
// related fields added. Add it with Echo.Use(); Echo has already routed the
// request by then, so the route is known.
package cmtecho
