package codec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes schema errors.
type ErrorKind string

const (
	// KindMissingField indicates a required field is absent.
	KindMissingField ErrorKind = "missing_field"

	// KindTypeMismatch indicates a present value has the wrong variant.
	KindTypeMismatch ErrorKind = "type_mismatch"

	// KindUnknownVariant indicates a discriminant matched no known variant.
	KindUnknownVariant ErrorKind = "unknown_variant"
)

// SchemaError reports a Value whose shape does not fit the target Go type.
type SchemaError struct {
	Kind ErrorKind

	// Path locates the failing value, e.g. ["body", "[2]", "name"].
	Path []string

	// Expected and Found are set for KindTypeMismatch.
	Expected string
	Found    string

	// Key and Tag are set for KindUnknownVariant.
	Key string
	Tag string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("missing field %q", e.Field())
	case KindTypeMismatch:
		if len(e.Path) == 0 {
			return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
		}
		return fmt.Sprintf("type mismatch at %s: expected %s, found %s", e.Field(), e.Expected, e.Found)
	case KindUnknownVariant:
		return fmt.Sprintf("unknown variant %q for key %q", e.Tag, e.Key)
	default:
		return fmt.Sprintf("schema error at %s", e.Field())
	}
}

// Field renders Path as a dotted field reference ("ops[1].value").
func (e *SchemaError) Field() string {
	return formatPath(e.Path)
}

func formatPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// NewMissingField creates a SchemaError for an absent required field.
func NewMissingField(path []string) *SchemaError {
	return &SchemaError{Kind: KindMissingField, Path: clonePath(path)}
}

// NewTypeMismatch creates a SchemaError for a value of the wrong variant.
func NewTypeMismatch(path []string, expected, found string) *SchemaError {
	return &SchemaError{
		Kind:     KindTypeMismatch,
		Path:     clonePath(path),
		Expected: expected,
		Found:    found,
	}
}

// NewUnknownVariant creates a SchemaError for an unrecognised discriminant.
func NewUnknownVariant(key, tag string) *SchemaError {
	return &SchemaError{Kind: KindUnknownVariant, Path: []string{key}, Key: key, Tag: tag}
}

// IsMissingField returns true if err wraps a missing field SchemaError.
func IsMissingField(err error) bool {
	return hasKind(err, KindMissingField)
}

// IsTypeMismatch returns true if err wraps a type mismatch SchemaError.
func IsTypeMismatch(err error) bool {
	return hasKind(err, KindTypeMismatch)
}

// IsUnknownVariant returns true if err wraps an unknown variant SchemaError.
func IsUnknownVariant(err error) bool {
	return hasKind(err, KindUnknownVariant)
}

func hasKind(err error, kind ErrorKind) bool {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// clonePath copies path so errors never alias the decoder's scratch slice.
func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
