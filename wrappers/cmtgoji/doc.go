// Package cmtgoji has Middleware to use with the Goji muxer.
//
// Summary
//
// cmtgoji puts a comment naming the matched Goji pattern on each request's
// context, for example `/* GET /hello/:name */`, and sends one event per
// request with the pattern's details attached. Install it with mux.Use; Goji
// runs middleware after routing, so the matched pattern is known.
package cmtgoji
