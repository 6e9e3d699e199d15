package rcopy

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Exclusion decides which directory entries the client never sends.
// Dotfiles are always excluded; patterns match an entry's base name.
type Exclusion struct {
	patterns []string
}

func NewExclusion(patterns ...string) (*Exclusion, error) {
	e := &Exclusion{}
	for _, p := range patterns {
		if err := e.Add(p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Exclusion) Add(pattern string) error {
	// Reject malformed patterns now instead of on every entry
	if _, err := filepath.Match(pattern, ""); err != nil {
		return errors.Wrapf(err, "exclusion pattern %q", pattern)
	}
	e.patterns = append(e.patterns, pattern)
	return nil
}

func (e *Exclusion) Match(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if e == nil {
		return false
	}
	for _, p := range e.patterns {
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
