package docskema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/docskema/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeCastError         = "cast_error"
	CodeRequired          = "required"
	CodeEnum              = "enum"
	CodeMin               = "min"
	CodeMax               = "max"
	CodeMinLength         = "minlength"
	CodeMaxLength         = "maxlength"
	CodeMatch             = "match"
	CodeUserDefined       = "user_defined"
	CodeObjectExpected    = "object_expected"
	CodeUnknownKey        = "unknown_key"
	CodeInvalidDefinition = "invalid_definition"
	CodeDuplicateKey      = "duplicate_key"
	CodeParseError        = "parse_error"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // Dotted document path (for example: child.name, tags.2).
	Code    string // One of the codes listed above.
	Message string
	Kind    string // Instance of the path that produced the issue, when known.
	Value   any    // Offending value, when known.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. cast_error at age
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// For returns the first issue recorded for path.
func (iss Issues) For(path string) (Issue, bool) {
	for _, it := range iss {
		if it.Path == path {
			return it, true
		}
	}
	return Issue{}, false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues, true
	}
	return nil, false
}

// rebaseIssues prefixes every issue path with base (dot-joined).
func rebaseIssues(base string, in Issues) Issues {
	if base == "" {
		return in
	}
	out := make(Issues, 0, len(in))
	for _, it := range in {
		if it.Path == "" {
			it.Path = base
		} else {
			it.Path = base + "." + it.Path
		}
		out = append(out, it)
	}
	return out
}

// SchemaDefinitionError reports a definition that cannot be compiled.
type SchemaDefinitionError struct {
	Path   string
	Reason string
	Value  any
	// Line and Column locate Path in a definition file, when it came from one.
	Line, Column int
}

func (e *SchemaDefinitionError) Error() string {
	if e.Path == "" {
		return "docskema: invalid schema definition: " + e.Reason
	}
	return fmt.Sprintf("docskema: invalid schema definition at %q: %s", e.Path, e.Reason)
}

// Unwrap exposes the error as an invalid_definition issue.
func (e *SchemaDefinitionError) Unwrap() error {
	return Issues{{
		Path:    e.Path,
		Code:    CodeInvalidDefinition,
		Message: i18n.T(CodeInvalidDefinition, map[string]string{"path": e.Path}),
		Value:   e.Value,
		Params:  map[string]any{"reason": e.Reason},
	}}
}

func definitionErr(path, format string, a ...any) *SchemaDefinitionError {
	return &SchemaDefinitionError{Path: path, Reason: fmt.Sprintf(format, a...)}
}

// ValidationError is returned by Document.Validate and Document.ValidateSync.
// The document stays usable; the issues describe every failing path.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	return "docskema: validation failed: " + e.Issues.Error()
}

// Unwrap exposes the underlying Issues to errors.As.
func (e *ValidationError) Unwrap() error { return e.Issues }

// For returns the first issue recorded for path.
func (e *ValidationError) For(path string) (Issue, bool) { return e.Issues.For(path) }

// StrictModeError is returned when a document receives a key that is not in
// its schema and the schema's unknown policy is UnknownStrict.
type StrictModeError struct {
	Path string
}

func (e *StrictModeError) Error() string {
	return fmt.Sprintf("docskema: field %q is not in schema and strict mode is set to throw", e.Path)
}

// Unwrap exposes the error as an unknown_key issue.
func (e *StrictModeError) Unwrap() error {
	return Issues{{
		Path:    e.Path,
		Code:    CodeUnknownKey,
		Message: i18n.T(CodeUnknownKey, map[string]string{"path": e.Path}),
	}}
}

// OverwriteModelError is returned when a model name is registered twice with
// different schemas.
type OverwriteModelError struct {
	Name string
}

func (e *OverwriteModelError) Error() string {
	return fmt.Sprintf("docskema: cannot overwrite model %q once compiled", e.Name)
}

// MissingSchemaError is returned when looking up a model that was never
// registered.
type MissingSchemaError struct {
	Name string
}

func (e *MissingSchemaError) Error() string {
	return fmt.Sprintf("docskema: schema hasn't been registered for model %q", e.Name)
}
