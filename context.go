package sqlcomment

import "context"

type commentKey struct{}

// WithComment returns a copy of ctx carrying comment. Wrapped database
// handles prepend it to every statement run with that context.
func WithComment(ctx context.Context, comment interface{}) context.Context {
	return context.WithValue(ctx, commentKey{}, comment)
}

// CommentFromContext returns the comment stored by WithComment, or nil.
func CommentFromContext(ctx context.Context) interface{} {
	if ctx == nil {
		return nil
	}
	return ctx.Value(commentKey{})
}

// AppendComment adds extra to any comment already on ctx, joined with "; ".
// Middleware uses this so an outer router and an inner handler can both
// contribute.
func AppendComment(ctx context.Context, extra string) context.Context {
	if extra == "" {
		return ctx
	}
	existing := CommentFromContext(ctx)
	if Blank(existing) {
		return WithComment(ctx, extra)
	}
	return WithComment(ctx, Stringify(existing)+"; "+extra)
}
