// Package propagation parses trace context headers carried by incoming
// requests and renders them as text suitable for a SQL comment, so that a
// statement seen in a database log can be tied back to the request that
// issued it.
package propagation

import (
	"fmt"
	"strings"
)

// PropagationContext contains information about a trace that can cross process boundaries.
// Typically this information is parsed from an incoming trace context header.
type PropagationContext struct {
	TraceID      string
	ParentID     string
	Dataset      string
	TraceContext map[string]interface{}
	TraceFlags   byte
}

// hasTraceID checks that the trace ID is valid.
func (prop PropagationContext) hasTraceID() bool {
	return prop.TraceID != "" && strings.Trim(prop.TraceID, "0") != ""
}

// hasParentID checks that the parent ID is valid.
func (prop PropagationContext) hasParentID() bool {
	return prop.ParentID != "" && strings.Trim(prop.ParentID, "0") != ""
}

// IsValid checks if the PropagationContext is valid. A valid PropagationContext has a valid
// trace ID and parent ID.
func (prop PropagationContext) IsValid() bool {
	return prop.hasTraceID() && prop.hasParentID()
}

// Comment renders the trace and parent ids as a comment body. An invalid
// context renders as the empty string, which annotators treat as blank.
func (prop *PropagationContext) Comment() string {
	if prop == nil || !prop.IsValid() {
		return ""
	}
	return fmt.Sprintf("trace_id=%s parent_id=%s", prop.TraceID, prop.ParentID)
}

// Getter returns the value of a named header, or the empty string.
// http.Header.Get satisfies it.
type Getter func(key string) string

// FromHeaders looks for a W3C traceparent header first and falls back to the
// Honeycomb header. It returns nil when neither holds a valid trace context.
func FromHeaders(get Getter) *PropagationContext {
	if get == nil {
		return nil
	}
	if h := get(W3CTraceparentHeader); h != "" {
		if prop, err := UnmarshalW3CTraceContext(h); err == nil && prop.IsValid() {
			return prop
		}
	}
	if h := get(HoneycombTraceHeader); h != "" {
		if prop, err := UnmarshalHoneycombTraceContext(h); err == nil && prop.IsValid() {
			return prop
		}
	}
	return nil
}

type propagationError struct {
	message      string
	wrappedError error
}

func (p *propagationError) Error() string {
	if p.wrappedError == nil {
		return p.message
	}
	return fmt.Sprintf(p.message+": %s", p.wrappedError.Error())
}

func (p *propagationError) Unwrap() error {
	return p.wrappedError
}
