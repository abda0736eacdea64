package sqlcomment

const (
	spaceDelimiter   = " "
	newlineDelimiter = "\n"
)

// Config controls how comments are rendered into SQL fragments. It is read
// once when the injector is installed on a host and captured by the wrapped
// operations for the lifetime of that host. The zero value is usable.
type Config struct {
	// Newline, when true, separates the comment block from the SQL with a
	// line feed instead of a single space. default: false
	Newline bool
	// Policy picks how unsafe characters in a comment are neutralized.
	// default: EscapePolicy
	Policy Policy
	// Escaper, if set, is the host's own value escaping routine. It runs on
	// the comment before the Policy, so a dialect that quotes string literals
	// will render `/* 'my comment' */`. default: nil
	Escaper EscapeFunc
}

// Delimiter returns the string placed between the comment block and the SQL.
func (c Config) Delimiter() string {
	if c.Newline {
		return newlineDelimiter
	}
	return spaceDelimiter
}

// Annotator returns the transform described by this config.
func (c Config) Annotator() *Annotator {
	return &Annotator{
		Delimiter: c.Delimiter(),
		Policy:    c.Policy,
		Escaper:   c.Escaper,
	}
}

// resolveConfig picks the first config passed to an installer, or the zero
// Config when none was given.
func resolveConfig(cfgs []Config) Config {
	if len(cfgs) == 0 {
		return Config{}
	}
	return cfgs[0]
}
