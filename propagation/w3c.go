package propagation

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// W3CTraceparentHeader is the W3C Trace Context header.
const W3CTraceparentHeader = "traceparent"

// MarshalW3CTraceContext renders prop as a version 00 traceparent value.
// It returns the empty string if prop is nil or invalid.
func MarshalW3CTraceContext(prop *PropagationContext) string {
	if prop == nil || !prop.IsValid() {
		return ""
	}
	return fmt.Sprintf("00-%s-%s-%02x", prop.TraceID, prop.ParentID, prop.TraceFlags)
}

// UnmarshalW3CTraceContext parses a traceparent value of the form
// version-trace_id-parent_id-flags.
func UnmarshalW3CTraceContext(header string) (*PropagationContext, error) {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) < 4 {
		return nil, &propagationError{"malformed traceparent", nil}
	}
	version, traceID, parentID, flags := parts[0], parts[1], parts[2], parts[3]
	if version == "ff" || !isHex(version, 2) {
		return nil, &propagationError{fmt.Sprintf("unsupported traceparent version %s", version), nil}
	}
	// version 00 has exactly four fields; later versions may add more
	if version == "00" && len(parts) != 4 {
		return nil, &propagationError{"malformed traceparent", nil}
	}
	if !isHex(traceID, 32) {
		return nil, &propagationError{"invalid trace id", nil}
	}
	if !isHex(parentID, 16) {
		return nil, &propagationError{"invalid parent id", nil}
	}
	if !isHex(flags, 2) {
		return nil, &propagationError{"invalid trace flags", nil}
	}
	b, err := hex.DecodeString(flags)
	if err != nil {
		return nil, &propagationError{"invalid trace flags", err}
	}
	prop := &PropagationContext{
		TraceID:    traceID,
		ParentID:   parentID,
		TraceFlags: b[0],
	}
	if !prop.IsValid() {
		return nil, &propagationError{"all-zero trace or parent id", nil}
	}
	return prop, nil
}

// isHex reports whether s is n lowercase hex digits.
func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
