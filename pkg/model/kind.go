package model

import (
	"sort"
	"strings"
)

// Kind is the type of version control system backing a source
type Kind string

// Supported kinds of sources
const (
	Git        Kind = "git"
	SVN        Kind = "svn"
	Mercurial  Kind = "hg"
	Bazaar     Kind = "bzr"
	Darcs      Kind = "darcs"
	CVS        Kind = "cvs"
	GitSVN     Kind = "gitsvn"
	Filesystem Kind = "fs"
)

var kindAliases = map[string]Kind{
	"git":        Git,
	"svn":        SVN,
	"hg":         Mercurial,
	"mercurial":  Mercurial,
	"bzr":        Bazaar,
	"bazaar":     Bazaar,
	"darcs":      Darcs,
	"cvs":        CVS,
	"gitsvn":     GitSVN,
	"git-svn":    GitSVN,
	"fs":         Filesystem,
	"filesystem": Filesystem,
}

// Kinds lists all supported kinds, sorted by name
func Kinds() []Kind {
	kinds := []Kind{Git, SVN, Mercurial, Bazaar, Darcs, CVS, GitSVN, Filesystem}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind resolves a kind from its name or one of its aliases
func ParseKind(name string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(name)]
	if !ok {
		return "", configErrorf("unknown repository type %q", name)
	}
	return kind, nil
}

// IsDistributed tells if a kind may hold local commits not yet pushed
func (k Kind) IsDistributed() bool {
	switch k {
	case Git, Mercurial, GitSVN:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}
