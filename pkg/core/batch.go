package core

import (
	"strings"

	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/vcs"
)

// BatchOptions are the options of a checkout or update batch
type BatchOptions struct {
	// Update existing working copies on checkout: true, yes, on, force, false, no or off.
	// force also overrides the dirty check.
	Update     string
	Force      bool
	Verbose    bool
	Offline    bool
	Submodules string
}

// StatusOptions are the options of status queries
type StatusOptions struct {
	Verbose bool
	Offline bool
}

// ParseUpdate reads the update option of a batch. An empty value means false.
func ParseUpdate(value string) (update, force bool, err error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "no", "off":
		return false, false, nil
	case "true", "yes", "on":
		return true, false, nil
	case "force":
		return true, true, nil
	default:
		return false, false, errors.Errorf("unknown value for update: %q", value).Wrap(model.ErrConfiguration)
	}
}

// ParseSubmodules reads the submodules option of a batch: always, never or checkout.
// An empty value means always.
func ParseSubmodules(value string) (vcs.SubmodulesMode, error) {
	return vcs.ParseSubmodules(value)
}

func (o BatchOptions) resolve() (vcs.Options, error) {
	update, force, err := ParseUpdate(o.Update)
	if err != nil {
		return vcs.Options{}, err
	}
	submodules, err := ParseSubmodules(o.Submodules)
	if err != nil {
		return vcs.Options{}, err
	}
	return vcs.Options{
		Update:     update,
		Force:      o.Force || force,
		Verbose:    o.Verbose,
		Offline:    o.Offline,
		Submodules: submodules,
	}, nil
}
