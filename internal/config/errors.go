package config

import "fmt"

// Kind classifies a configuration load failure.
type Kind int

const (
	// KindRead means the file existed but could not be read.
	KindRead Kind = iota + 1
	// KindSyntax means the file is not valid TOML.
	KindSyntax
	// KindField means a value could not be decoded into its field.
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindSyntax:
		return "syntax"
	case KindField:
		return "field"
	default:
		return "unknown"
	}
}

// ParseError describes a configuration load failure with its kind and
// the underlying cause.
type ParseError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config %s: %s error: %v", e.Path, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
