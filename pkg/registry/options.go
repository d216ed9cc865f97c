package registry

import (
	"github.com/oneconcern/mrdev/pkg/rewrite"
	"go.uber.org/zap"
)

const defaultSourcesDir = "src"

// Option sets options to parse source specifications
type Option func(*settings)

type settings struct {
	sourcesDir string
	baseDir    string
	rewrites   rewrite.Rules
	l          *zap.Logger
}

// SourcesDir sets the default parent directory of working copies. It defaults to "src".
func SourcesDir(dir string) Option {
	return func(s *settings) {
		if dir != "" {
			s.sourcesDir = dir
		}
	}
}

// BaseDir sets the directory against which relative paths are resolved.
// It defaults to the current directory.
func BaseDir(dir string) Option {
	return func(s *settings) {
		s.baseDir = dir
	}
}

// Rewrites sets the rules applied to every source before registration
func Rewrites(rules rewrite.Rules) Option {
	return func(s *settings) {
		s.rewrites = append(s.rewrites, rules...)
	}
}

// Logger sets the logger used to report deprecations
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

func defaultSettings() settings {
	return settings{
		sourcesDir: defaultSourcesDir,
		l:          zap.NewNop(),
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	return s
}
