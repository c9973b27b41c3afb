package profile

import (
	"errors"
	"strings"
)

// ErrInheritanceCycle is returned when profiles extend each other in a loop.
var ErrInheritanceCycle = errors.New("inheritance cycle")

// ConfigError reports a broken profile or settings declaration. Chain holds
// the files that led to the failure, outermost first.
type ConfigError struct {
	Path  string
	Chain []string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg + ": " + e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("invalid configuration")
	}
	if len(e.Chain) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Chain, " -> "))
	} else if e.Path != "" {
		b.WriteString(" (" + e.Path + ")")
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
