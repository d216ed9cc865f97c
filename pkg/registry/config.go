package registry

import (
	"path/filepath"
	"strings"

	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/rewrite"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v2"
)

const (
	defaultThreads        = 5
	defaultSourcesSection = "sources"
	allSources            = "*"
)

// Config is the result of loading a configuration file
type Config struct {
	Path                          string
	BaseDir                       string
	SourcesDir                    string
	AutoCheckout                  []string
	AlwaysCheckout                string
	Threads                       int
	AlwaysAcceptServerCertificate bool
	CloneDepth                    int
	Rewrites                      rewrite.Rules
	Registry                      *Registry
}

// AutoCheckoutNames returns the names of sources to check out when none is explicitly requested
func (c *Config) AutoCheckoutNames() []string {
	for _, name := range c.AutoCheckout {
		if name == allSources {
			return c.Registry.Names()
		}
	}
	return append([]string(nil), c.AutoCheckout...)
}

// yamlConfig is the YAML flavor of the configuration file
type yamlConfig struct {
	SourcesDir                    string      `yaml:"sources-dir"`
	Threads                       int         `yaml:"threads"`
	AutoCheckout                  []string    `yaml:"auto-checkout"`
	AlwaysCheckout                interface{} `yaml:"always-checkout"`
	AlwaysAcceptServerCertificate interface{} `yaml:"always-accept-server-certificate"`
	CloneDepth                    int         `yaml:"git-clone-depth"`
	Sources                       []Spec      `yaml:"sources"`
	Rewrites                      []string    `yaml:"rewrites"`
	LegacyRewrites                []string    `yaml:"legacy-rewrites"`
}

// LoadFile reads a configuration file.
//
// Files with a .yaml or .yml extension are read as YAML, others as buildout-like ini files:
//
//	[buildout]
//	sources = sources
//	sources-dir = src
//	auto-checkout = *
//
//	[sources]
//	mr.developer = git https://github.com/fschulze/mr.developer.git
//
//	[rewrites]
//	fork =
//	    url ~ fschulze(/mr.developer.git)
//	    me\1
//
// Options override the sources dir and base dir found in the file, and add rewrite rules.
func LoadFile(fs afero.Fs, path string, opts ...Option) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	var (
		cfg   *Config
		specs []Spec
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, specs, err = loadYAML(data)
	default:
		cfg, specs, err = loadINI(data)
	}
	if err != nil {
		return nil, errors.Errorf("reading configuration %s: %v", path, err).Wrap(model.ErrConfiguration)
	}
	cfg.Path = abs
	cfg.BaseDir = filepath.Dir(abs)

	s := applyOptions(append([]Option{
		BaseDir(cfg.BaseDir),
		SourcesDir(cfg.SourcesDir),
		Rewrites(cfg.Rewrites),
	}, opts...))
	cfg.SourcesDir = s.sourcesDir
	cfg.BaseDir = s.baseDir
	cfg.Rewrites = s.rewrites

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
	cfg.Registry = reg

	for _, name := range cfg.AutoCheckout {
		if name != allSources && !reg.Has(name) {
			return nil, errors.Errorf("auto-checkout of %q: no source defined", name).Wrap(model.ErrConfiguration)
		}
	}
	return cfg, nil
}

func loadINI(data []byte) (*Config, []Spec, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		IgnoreContinuation:         true,
		IgnoreInlineComment:        true,
		SpaceBeforeInlineComment:   true,
	}, data)
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{Threads: defaultThreads}
	buildout := file.Section("buildout")
	cfg.SourcesDir = buildout.Key("sources-dir").String()
	cfg.AutoCheckout = strings.Fields(buildout.Key("auto-checkout").String())
	cfg.AlwaysCheckout = buildout.Key("always-checkout").MustString("false")
	if cfg.AlwaysAcceptServerCertificate, err = iniBool(buildout, "always-accept-server-certificate"); err != nil {
		return nil, nil, err
	}
	if cfg.CloneDepth, err = iniInt(buildout, "git-clone-depth", 0); err != nil {
		return nil, nil, err
	}
	if cfg.Threads, err = iniInt(buildout, "mr.developer-threads", cfg.Threads); err != nil {
		return nil, nil, err
	}

	developer := file.Section("mr.developer")
	if cfg.Threads, err = iniInt(developer, "threads", cfg.Threads); err != nil {
		return nil, nil, err
	}
	for _, line := range strings.Split(developer.Key("rewrites").String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rule, err := rewrite.ParseLegacy(line)
		if err != nil {
			return nil, nil, err
		}
		cfg.Rewrites = append(cfg.Rewrites, rule)
	}

	if file.HasSection("rewrites") {
		for _, key := range file.Section("rewrites").Keys() {
			rule, err := rewrite.Parse(key.String())
			if err != nil {
				return nil, nil, errors.Errorf("rewrite %q: %v", key.Name(), err).Wrap(model.ErrConfiguration)
			}
			cfg.Rewrites = append(cfg.Rewrites, rule)
		}
	}

	sourcesSection := buildout.Key("sources").MustString(defaultSourcesSection)
	var specs []Spec
	if file.HasSection(sourcesSection) {
		for _, key := range file.Section(sourcesSection).Keys() {
			specs = append(specs, Spec{Name: key.Name(), Text: key.String()})
		}
	}
	return cfg, specs, nil
}

func loadYAML(data []byte) (*Config, []Spec, error) {
	var y yamlConfig
	if err := yaml.UnmarshalStrict(data, &y); err != nil {
		return nil, nil, err
	}
	cfg := &Config{
		SourcesDir:   y.SourcesDir,
		Threads:      y.Threads,
		AutoCheckout: y.AutoCheckout,
		CloneDepth:   y.CloneDepth,
	}
	if cfg.Threads == 0 {
		cfg.Threads = defaultThreads
	}
	cfg.AlwaysCheckout = "false"
	if y.AlwaysCheckout != nil {
		cfg.AlwaysCheckout = cast.ToString(y.AlwaysCheckout)
	}
	if y.AlwaysAcceptServerCertificate != nil {
		accept, err := model.ParseBool(cast.ToString(y.AlwaysAcceptServerCertificate))
		if err != nil {
			return nil, nil, err
		}
		cfg.AlwaysAcceptServerCertificate = accept
	}
	for _, line := range y.LegacyRewrites {
		rule, err := rewrite.ParseLegacy(line)
		if err != nil {
			return nil, nil, err
		}
		cfg.Rewrites = append(cfg.Rewrites, rule)
	}
	for _, text := range y.Rewrites {
		rule, err := rewrite.Parse(text)
		if err != nil {
			return nil, nil, err
		}
		cfg.Rewrites = append(cfg.Rewrites, rule)
	}
	return cfg, y.Sources, nil
}

func iniBool(section *ini.Section, key string) (bool, error) {
	if !section.HasKey(key) {
		return false, nil
	}
	v := section.Key(key).String()
	b, err := model.ParseBool(v)
	if err != nil {
		return false, errors.Errorf("invalid value %q for %s", v, key)
	}
	return b, nil
}

func iniInt(section *ini.Section, key string, dflt int) (int, error) {
	if !section.HasKey(key) {
		return dflt, nil
	}
	v := section.Key(key).String()
	i, err := cast.ToIntE(v)
	if err != nil {
		return dflt, errors.Errorf("invalid value %q for %s", v, key)
	}
	return i, nil
}
