// Package cmtgorilla has Middleware to use with the gorilla muxer.
//
// Summary
//
// cmtgorilla puts a comment naming the matched route on each request's
// context, so statements run through cmtsql or cmtsqlx with that context say
// which endpoint issued them. A route's name, when it has one, wins over its
// path template:
//
//	/* GET /hello/{name} */ SELECT ...
//	/* GET greeting */ SELECT ...
package cmtgorilla
