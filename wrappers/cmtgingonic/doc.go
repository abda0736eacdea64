// Package cmtgingonic has Middleware to use with the gin-gonic muxer.
//
// Summary
//
// cmtgingonic has Middleware for use in the gin.Use function call wrapping all
// requests that come into the gin muxer. Each request's context carries a
// comment naming the matched route, for example `/* GET /flavors/:id */`.
// Handlers pass c.Request.Context() to their database calls to have it
// prepended to their SQL.
package cmtgingonic
