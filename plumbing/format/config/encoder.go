package config

import (
	"fmt"
	"io"
	"strings"
)

// An Encoder writes config sections to an output stream, in the same
// "[section \"subsection\"]\n\tkey = value\n" layout git itself emits.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w}
}

// Encode writes cfg's sections, in declaration order, to the encoder's
// writer.
func (e *Encoder) Encode(cfg *Config) error {
	for _, s := range cfg.Sections {
		if err := e.encodeSection(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSection(s *Section) error {
	if len(s.Options) != 0 {
		if err := e.printf("[%s]\n", s.Name); err != nil {
			return err
		}
		if err := e.encodeOptions(s.Options); err != nil {
			return err
		}
	}

	for _, ss := range s.Subsections {
		if err := e.encodeSubsection(s.Name, ss); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeSubsection(sectionName string, ss *Subsection) error {
	if err := e.printf("[%s %q]\n", sectionName, ss.Name); err != nil {
		return err
	}
	return e.encodeOptions(ss.Options)
}

func (e *Encoder) encodeOptions(opts Options) error {
	for _, o := range opts {
		value := o.Value
		if needsQuote(value) {
			value = fmt.Sprintf("%q", value)
		}
		if err := e.printf("\t%s = %s\n", o.Key, value); err != nil {
			return err
		}
	}
	return nil
}

// needsQuote reports whether v must be wrapped in double quotes to
// round-trip through a gitconfig reader: the presence of '#'/';' (comment
// starters), a literal quote or backslash, or leading/trailing whitespace
// would otherwise be lost or misparsed.
func needsQuote(v string) bool {
	if v == "" {
		return false
	}
	if strings.ContainsAny(v, "#;\"\\") {
		return true
	}
	return v[0] == ' ' || v[0] == '\t' || v[len(v)-1] == ' ' || v[len(v)-1] == '\t'
}

func (e *Encoder) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(e.w, format, args...)
	return err
}
