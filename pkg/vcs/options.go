package vcs

import (
	"strings"

	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
)

// SubmodulesMode tells when git submodules are initialized
type SubmodulesMode string

// Submodule modes
const (
	SubmodulesAlways   SubmodulesMode = "always"
	SubmodulesCheckout SubmodulesMode = "checkout"
	SubmodulesNever    SubmodulesMode = "never"
)

// ParseSubmodules reads a submodules mode. An empty value means always.
func ParseSubmodules(value string) (SubmodulesMode, error) {
	switch mode := SubmodulesMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return SubmodulesAlways, nil
	case SubmodulesAlways, SubmodulesCheckout, SubmodulesNever:
		return mode, nil
	default:
		return "", errors.Errorf("unknown value for submodules: %q, expected always, checkout or never", value).
			Wrap(model.ErrConfiguration)
	}
}

// Options of a working copy operation
type Options struct {
	Update     bool
	Force      bool
	Verbose    bool
	Offline    bool
	Submodules SubmodulesMode
}
