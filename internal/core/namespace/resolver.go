package namespace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/europeana/metis-tools/internal/core/domain"
)

var (
	// ErrNoMatch is matched by errors for tags no binding classifies.
	ErrNoMatch = errors.New("no matching namespace")

	// ErrDuplicatePrefix is returned when two bindings share a prefix.
	ErrDuplicatePrefix = errors.New("duplicate namespace prefix")

	// ErrEmptyPrefix is returned for a binding with a blank prefix.
	ErrEmptyPrefix = errors.New("empty namespace prefix")

	// ErrAmbiguousPrefix is returned when two distinct bindings match a tag
	// with the same length. Unique prefixes make it unreachable.
	ErrAmbiguousPrefix = errors.New("ambiguous namespace prefix")
)

// Binding associates a tag prefix with the namespace it stands for.
type Binding struct {
	Prefix    string           `yaml:"prefix"`
	Namespace domain.Namespace `yaml:"uri"`
}

// NoMatchError reports a tag that no binding classifies. It is a data error
// in the input and must not be retried.
type NoMatchError struct {
	Tag       string
	Separator string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s for tag %q (separator %q)", ErrNoMatch, e.Tag, e.Separator)
}

func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// Resolver classifies tags by their longest registered prefix.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	bindings []Binding
}

// NewResolver validates bindings and builds a resolver.
// Duplicate or empty prefixes are rejected.
func NewResolver(bindings []Binding) (*Resolver, error) {
	seen := make(map[string]domain.Namespace, len(bindings))
	copied := make([]Binding, 0, len(bindings))

	for _, b := range bindings {
		if b.Prefix == "" {
			return nil, fmt.Errorf("%w (namespace %q)", ErrEmptyPrefix, b.Namespace)
		}
		if prev, ok := seen[b.Prefix]; ok {
			return nil, fmt.Errorf("%w %q: bound to %q and %q", ErrDuplicatePrefix, b.Prefix, prev, b.Namespace)
		}
		seen[b.Prefix] = b.Namespace
		copied = append(copied, b)
	}

	return &Resolver{bindings: copied}, nil
}

// Resolve returns the namespace of the longest prefix p such that tag
// starts with p+separator.
func (r *Resolver) Resolve(tag, separator string) (domain.Namespace, error) {
	var (
		best      Binding
		found     bool
		ambiguous bool
	)

	for _, b := range r.bindings {
		if !strings.HasPrefix(tag, b.Prefix+separator) {
			continue
		}
		switch {
		case !found || len(b.Prefix) > len(best.Prefix):
			best, found, ambiguous = b, true, false
		case len(b.Prefix) == len(best.Prefix):
			ambiguous = true
		}
	}

	if !found {
		return "", &NoMatchError{Tag: tag, Separator: separator}
	}
	if ambiguous {
		return "", fmt.Errorf("%w for tag %q at length %d", ErrAmbiguousPrefix, tag, len(best.Prefix))
	}
	return best.Namespace, nil
}

// Bindings returns a copy of the registered bindings.
func (r *Resolver) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	return out
}

// Len returns the number of bindings.
func (r *Resolver) Len() int {
	return len(r.bindings)
}
