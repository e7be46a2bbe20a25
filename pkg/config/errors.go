package config

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed source document. Parsing stops at the first
// syntax error, so resolution never sees a partial document.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Col > 0:
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	default:
		return fmt.Sprintf("parse error: %s", e.Msg)
	}
}

// ValidationError is a single field-level violation. Path is a JSON-pointer
// style location of the offending field ("/agents/1/model/provider").
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors batches every violation found in one resolution pass so
// callers can report all problems at once instead of one at a time.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e))
	for _, ve := range e {
		sb.WriteString("\n  - ")
		sb.WriteString(ve.Error())
	}
	return sb.String()
}

func (e *ValidationErrors) add(path, format string, args ...any) {
	*e = append(*e, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// DuplicateIDError reports an agent id collision in a multi-agent document.
type DuplicateIDError struct {
	ID    string
	Paths []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate agent id %q (%s)", e.ID, strings.Join(e.Paths, ", "))
}

// Warning is a non-fatal finding surfaced alongside a successfully resolved
// configuration, such as an unresolved environment variable reference.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}
