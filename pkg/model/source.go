package model

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Option keys understood by one or more backends
const (
	OptBranch          = "branch"
	OptRev             = "rev"
	OptRevision        = "revision"
	OptPushURL         = "pushurl"
	OptSubmodules      = "submodules"
	OptEgg             = "egg"
	OptUpdate          = "update"
	OptNewestTag       = "newest_tag"
	OptNewestTagPrefix = "newest_tag_prefix"
	OptCVSRoot         = "cvs_root"
	OptTag             = "tag"
	OptTagFile         = "tag_file"
	OptDepth           = "depth"
	OptPath            = "path"
	OptFullPath        = "full-path"
)

// Source describes a repository to materialize as a working copy.
//
// A source is immutable once registered; rewrite rules operate on a copy
// before registration.
type Source struct {
	Name    string            `json:"name" yaml:"name"`
	Kind    Kind              `json:"kind" yaml:"kind"`
	URL     string            `json:"url" yaml:"url"`
	Path    string            `json:"path" yaml:"path"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option returns the value of a backend specific option
func (s Source) Option(key string) (string, bool) {
	if s.Options == nil {
		return "", false
	}
	v, ok := s.Options[key]
	return v, ok
}

// Revision returns the pinned revision, from either "rev" or "revision"
func (s Source) Revision() string {
	if rev, ok := s.Option(OptRev); ok {
		return rev
	}
	rev, _ := s.Option(OptRevision)
	return rev
}

// Branch returns the configured branch, if any
func (s Source) Branch() string {
	branch, _ := s.Option(OptBranch)
	return branch
}

// BoolOption interprets an option as a boolean, with a default value when unset
func (s Source) BoolOption(key string, dflt bool) (bool, error) {
	v, ok := s.Option(key)
	if !ok {
		return dflt, nil
	}
	b, err := ParseBool(v)
	if err != nil {
		return dflt, configErrorf("invalid value %q for option %q of source %q", v, key, s.Name)
	}
	return b, nil
}

// IsEgg tells if the source is a development egg (the default)
func (s Source) IsEgg() bool {
	egg, err := s.BoolOption(OptEgg, true)
	if err != nil {
		return true
	}
	return egg
}

// OptionKeys returns the sorted option keys
func (s Source) OptionKeys() []string {
	keys := make([]string, 0, len(s.Options))
	for k := range s.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the source
func (s Source) Clone() Source {
	c := s
	if s.Options != nil {
		c.Options = make(map[string]string, len(s.Options))
		for k, v := range s.Options {
			c.Options[k] = v
		}
	}
	return c
}

// Field returns the value of a named field: name, kind, url, path, or else an option
func (s Source) Field(field string) (string, bool) {
	switch field {
	case "name":
		return s.Name, true
	case "kind":
		return string(s.Kind), true
	case "url":
		return s.URL, true
	case "path":
		return s.Path, true
	default:
		return s.Option(field)
	}
}

// SetField updates a named field, see Field
func (s *Source) SetField(field, value string) {
	switch field {
	case "name":
		s.Name = value
	case "kind":
		// aliases resolve to the canonical kind, unknown values are left for Validate
		if kind, err := ParseKind(value); err == nil {
			s.Kind = kind
		} else {
			s.Kind = Kind(value)
		}
	case "url":
		s.URL = value
	case "path":
		s.Path = value
	default:
		if s.Options == nil {
			s.Options = make(map[string]string)
		}
		s.Options[field] = value
	}
}

// Validate checks the consistency of a source definition
func (s Source) Validate() error {
	if s.Name == "" {
		return configErrorf("source without a name")
	}
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return configErrorf("unknown repository type %q for source %q", s.Kind, s.Name)
	}
	if s.URL == "" {
		return configErrorf("no url defined for source %q", s.Name)
	}

	_, hasRev := s.Option(OptRev)
	_, hasRevision := s.Option(OptRevision)
	_, hasBranch := s.Option(OptBranch)
	_, hasNewestTag := s.Option(OptNewestTag)

	switch s.Kind {
	case Git, GitSVN, Mercurial, SVN, Bazaar:
		if hasRev && hasRevision {
			return configErrorf("the source definition of %q contains duplicate revision options", s.Name)
		}
	}

	switch s.Kind {
	case Git, Mercurial:
		if hasBranch && (hasRev || hasRevision) {
			return configErrorf("'rev/revision' and 'branch' options are mutually exclusive for source %q", s.Name)
		}
	}

	switch s.Kind {
	case Mercurial, CVS:
		if hasNewestTag && (hasRev || hasRevision || hasBranch) {
			return configErrorf("'newest_tag' cannot be combined with 'rev/revision' or 'branch' for source %q", s.Name)
		}
	}

	if v, ok := s.Option(OptSubmodules); ok {
		switch v {
		case "always", "never", "checkout":
		default:
			return configErrorf("unknown value %q for option 'submodules' of source %q", v, s.Name)
		}
	}

	if v, ok := s.Option(OptDepth); ok {
		if _, err := cast.ToIntE(v); err != nil {
			return configErrorf("invalid clone depth %q for source %q", v, s.Name)
		}
	}
	return nil
}

// ParseBool interprets the boolean spellings accepted in configuration files
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return cast.ToBoolE(strings.ToLower(strings.TrimSpace(v)))
}
