package registry

import (
	"os"
	"path/filepath"
	"regexp"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
	"go.uber.org/zap"
)

// Spec is the textual definition of a named source
type Spec struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"spec" yaml:"spec"`
}

// tokens shaped like key=value. URLs with a query string are not options.
var optionToken = regexp.MustCompile(`^[\w.-]*=`)

// ParseSpec builds a source from its specification string:
//
//	kind url [path] [key=value ...]
//
// The optional third positional token is the legacy form of path=.
func ParseSpec(name, text string, opts ...Option) (model.Source, error) {
	s := applyOptions(opts)
	return s.parse(name, text)
}

func (s settings) parse(name, text string) (model.Source, error) {
	if name == "" {
		return model.Source{}, specErrorf("source definition without a name: %q", text)
	}
	tokens, err := shlex.Split(text, true)
	if err != nil {
		return model.Source{}, specErrorf("malformed source definition for %q: %v", name, err)
	}

	var positional []string
	options := make(map[string]string)
	for _, token := range tokens {
		loc := optionToken.FindStringIndex(token)
		if loc == nil {
			if len(options) > 0 {
				return model.Source{}, specErrorf("unexpected token %q after options in the source definition of %q", token, name)
			}
			positional = append(positional, token)
			continue
		}
		key, value := token[:loc[1]-1], token[loc[1]:]
		if key == "" {
			return model.Source{}, specErrorf("empty option key in %q for the source definition of %q", token, name)
		}
		if _, dup := options[key]; dup {
			return model.Source{}, specErrorf("duplicate option %q in the source definition of %q", key, name)
		}
		options[key] = value
	}

	if len(positional) < 2 {
		return model.Source{}, specErrorf("the source definition of %q needs at least the repository kind and URL", name)
	}
	if len(positional) > 3 {
		return model.Source{}, specErrorf("too many positional arguments in the source definition of %q", name)
	}

	kind, err := model.ParseKind(positional[0])
	if err != nil {
		return model.Source{}, specErrorf("unknown repository type %q for source %q", positional[0], name)
	}

	if len(positional) == 3 {
		if _, dup := options[model.OptPath]; dup {
			return model.Source{}, specErrorf("duplicate option %q in the source definition of %q", model.OptPath, name)
		}
		s.l.Warn("positional path in source definitions is deprecated, use path=",
			zap.String("source", name), zap.String("path", positional[2]))
		options[model.OptPath] = positional[2]
	}

	src := model.Source{
		Name:    name,
		Kind:    kind,
		URL:     positional[1],
		Options: options,
	}
	src.Path = s.workingCopyPath(src)

	s.rewrites.Apply(&src)
	if err := src.Validate(); err != nil {
		return model.Source{}, err
	}
	return src, nil
}

func (s settings) workingCopyPath(src model.Source) string {
	var p string
	if full, ok := src.Option(model.OptFullPath); ok {
		p = full
	} else {
		parent := s.sourcesDir
		if dir, ok := src.Option(model.OptPath); ok {
			parent = dir
		}
		p = filepath.Join(parent, src.Name)
	}
	p = os.ExpandEnv(p)
	if !filepath.IsAbs(p) {
		base := s.baseDir
		if base == "" {
			base, _ = os.Getwd()
		}
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p)
}

// Build a registry from source specifications, in order
func Build(specs []Spec, opts ...Option) (*Registry, error) {
	s := applyOptions(opts)
	reg := New()
	for _, spec := range specs {
		src, err := s.parse(spec.Name, spec.Text)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(src); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func specErrorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...).Wrap(model.ErrConfiguration)
}
