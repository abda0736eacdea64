package sqlcomment

import (
	"fmt"
	"strings"
)

// Policy is the strategy used to keep a comment on one line and inside its
// `/* ... */` wrapper.
type Policy int

const (
	// EscapePolicy rewrites carriage returns and line feeds as the two
	// character sequences `\r` and `\n`, and backslash-escapes each character
	// of any `/*` or `*/` pair.
	EscapePolicy Policy = iota
	// CollapsePolicy replaces every run of line terminators with a single
	// space and every `/*` or `*/` pair with a single space.
	CollapsePolicy
)

func (p Policy) String() string {
	switch p {
	case EscapePolicy:
		return "escape"
	case CollapsePolicy:
		return "collapse"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps "escape" or "collapse" to a Policy. The empty string is
// EscapePolicy.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "escape":
		return EscapePolicy, nil
	case "collapse":
		return CollapsePolicy, nil
	}
	return EscapePolicy, fmt.Errorf("unknown sanitize policy %q", name)
}

// EscapeFunc is a host supplied value escaping routine, typically the ORM
// dialect's string literal quoting.
type EscapeFunc func(string) string

// Sanitize renders raw as a single line string that is safe to embed inside
// a block comment, using EscapePolicy.
func Sanitize(raw interface{}) string {
	return EscapePolicy.Sanitize(raw, nil)
}

// Sanitize renders raw with this policy. If escape is non-nil it is applied
// to the stringified value first.
func (p Policy) Sanitize(raw interface{}, escape EscapeFunc) string {
	s := Stringify(raw)
	if escape != nil {
		s = escape(s)
	}
	if p == CollapsePolicy {
		return collapse(s)
	}
	return escapeControl(s)
}

// Stringify coerces any comment value to its string form. nil is the empty
// string.
func Stringify(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

// commentMarker reports whether s[i] is one half of a `/*` or `*/` pair.
func commentMarker(s string, i int) bool {
	var other byte
	switch s[i] {
	case '/':
		other = '*'
	case '*':
		other = '/'
	default:
		return false
	}
	return (i > 0 && s[i-1] == other) || (i+1 < len(s) && s[i+1] == other)
}

func escapeControl(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case commentMarker(s, i):
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var markerReplacer = strings.NewReplacer("/*", " ", "*/", " ")

func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inBreak := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' || c == '\r' {
			if !inBreak {
				b.WriteByte(' ')
			}
			inBreak = true
			continue
		}
		inBreak = false
		b.WriteByte(c)
	}
	// the replacement is a space, so it can never form a new marker with
	// its neighbours
	return markerReplacer.Replace(b.String())
}
