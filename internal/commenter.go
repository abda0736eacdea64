package internal

import (
	"context"
	"strings"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
)

// Commenter decides which comment a statement gets and renders it. The
// database wrappers keep one per handle.
type Commenter struct {
	Annotator *sqlcomment.Annotator
	// Fallback is used when the call's context carries no comment.
	Fallback interface{}
}

// NewCommenter returns a Commenter for the first of cfgs, or for the zero
// Config when none is given.
func NewCommenter(cfgs ...sqlcomment.Config) Commenter {
	var cfg sqlcomment.Config
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	return Commenter{Annotator: cfg.Annotator()}
}

func (c Commenter) pick(ctx context.Context) interface{} {
	cmt := sqlcomment.CommentFromContext(ctx)
	if sqlcomment.Blank(cmt) {
		cmt = c.Fallback
	}
	return cmt
}

// Annotate returns the comment as text and the query with it prepended. Both
// come back unchanged when there is no comment.
func (c Commenter) Annotate(ctx context.Context, query string) (string, string) {
	cmt := c.pick(ctx)
	if sqlcomment.Blank(cmt) {
		return "", query
	}
	return sqlcomment.Stringify(cmt), c.Annotator.String(cmt, query)
}

// AnnotateNamed is Annotate for sqlx named queries. Colons in the comment
// block are doubled so sqlx does not read them as bind names.
func (c Commenter) AnnotateNamed(ctx context.Context, query string) (string, string) {
	cmt := c.pick(ctx)
	if sqlcomment.Blank(cmt) {
		return "", query
	}
	block := strings.ReplaceAll(c.Annotator.Block(cmt), ":", "::")
	return sqlcomment.Stringify(cmt), block + c.Annotator.Delimiter + query
}

// Comment returns the comment a call with ctx would get, as text.
func (c Commenter) Comment(ctx context.Context) string {
	cmt := c.pick(ctx)
	if sqlcomment.Blank(cmt) {
		return ""
	}
	return sqlcomment.Stringify(cmt)
}

// Inherit returns a Commenter for a child handle opened with ctx, such as a
// transaction or a connection.
func (c Commenter) Inherit(ctx context.Context) Commenter {
	if cmt := sqlcomment.CommentFromContext(ctx); !sqlcomment.Blank(cmt) {
		c.Fallback = cmt
	}
	return c
}
