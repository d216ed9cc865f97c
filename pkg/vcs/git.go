package vcs

import (
	"context"
	"strconv"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/spf13/cast"
)

const gitExe = "git"

type gitDriver struct {
	*base
}

func (g *gitDriver) git(ctx context.Context, op string, args ...string) (Result, error) {
	return g.run(ctx, op, g.src.Path, gitExe, args...)
}

func (g *gitDriver) depth() (int, error) {
	if v, ok := g.src.Option(model.OptDepth); ok {
		return cast.ToIntE(v)
	}
	return g.env.CloneDepth, nil
}

// submodules returns the effective mode: the option of the source wins over the batch
func (g *gitDriver) submodules(opts Options) SubmodulesMode {
	if v, ok := g.src.Option(model.OptSubmodules); ok {
		if mode, err := ParseSubmodules(v); err == nil {
			return mode
		}
	}
	if opts.Submodules == "" {
		return SubmodulesAlways
	}
	return opts.Submodules
}

func (g *gitDriver) checkout(ctx context.Context, opts Options) (string, error) {
	parent, err := g.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	g.infof("Cloned '%s' with git from '%s'.", g.src.Name, g.src.URL)

	args := []string{"clone", "--quiet"}
	depth, err := g.depth()
	if err != nil {
		return "", g.fail(model.ErrConfiguration, "checkout", "", "invalid depth: %v", err)
	}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	if branch := g.src.Branch(); branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, "--", g.src.URL, g.src.Path)

	var results []Result
	res, err := g.run(ctx, "checkout", parent, gitExe, args...)
	if err != nil {
		return "", err
	}
	results = append(results, res)

	if rev := g.src.Revision(); rev != "" {
		res, err = g.git(ctx, "checkout", "checkout", "--quiet", rev)
		if err != nil {
			return "", err
		}
		results = append(results, res)
	}
	if err := g.setPushURL(ctx, "checkout"); err != nil {
		return "", err
	}

	switch g.submodules(opts) {
	case SubmodulesAlways, SubmodulesCheckout:
		res, err = g.git(ctx, "checkout", "submodule", "update", "--init", "--recursive")
		if err != nil {
			return "", err
		}
		results = append(results, res)
	}
	return output(opts, results...), nil
}

func (g *gitDriver) setPushURL(ctx context.Context, op string) error {
	pushURL, ok := g.src.Option(model.OptPushURL)
	if !ok || pushURL == "" {
		return nil
	}
	_, err := g.git(ctx, op, "remote", "set-url", "--push", "origin", pushURL)
	return err
}

func (g *gitDriver) update(ctx context.Context, opts Options) (string, error) {
	g.infof("Updated '%s' with git.", g.src.Name)
	var results []Result
	res, err := g.git(ctx, "update", "fetch", "--quiet", "--tags", "origin")
	if err != nil {
		return "", err
	}
	results = append(results, res)

	if rev := g.src.Revision(); rev != "" {
		// pinned: move to the revision, never past it
		res, err = g.git(ctx, "update", "checkout", "--quiet", rev)
		if err != nil {
			return "", err
		}
		results = append(results, res)
	} else {
		if branch := g.src.Branch(); branch != "" {
			current, err := g.git(ctx, "update", "rev-parse", "--abbrev-ref", "HEAD")
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(current.Stdout) != branch {
				res, err = g.git(ctx, "update", "checkout", "--quiet", branch)
				if err != nil {
					return "", err
				}
				results = append(results, res)
			}
		}
		res, err = g.git(ctx, "update", "merge", "--quiet", "--ff-only", "@{upstream}")
		if err != nil {
			return "", err
		}
		results = append(results, res)
	}

	if err := g.setPushURL(ctx, "update"); err != nil {
		return "", err
	}
	if g.submodules(opts) == SubmodulesAlways {
		res, err := g.initNewSubmodules(ctx)
		if err != nil {
			return "", err
		}
		results = append(results, res...)
	}
	return output(opts, results...), nil
}

// initNewSubmodules initializes the submodules registered since the last update,
// leaving initialized ones untouched.
func (g *gitDriver) initNewSubmodules(ctx context.Context) ([]Result, error) {
	res, err := g.git(ctx, "update", "submodule", "status")
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, line := range strings.Split(res.Stdout, "\n") {
		if !strings.HasPrefix(line, "-") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		g.infof("Initialized '%s' submodule at '%s' with git.", g.src.Name, fields[1])
		r, err := g.git(ctx, "update", "submodule", "update", "--init", "--recursive", "--", fields[1])
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (g *gitDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	res, err := g.git(ctx, "status", "status", "--porcelain", "--branch")
	if err != nil {
		return "", "", err
	}
	st := parseGitStatus(res.Stdout)
	if opts.Verbose {
		return st, res.Stdout, nil
	}
	return st, "", nil
}

// parseGitStatus reads the output of git status --porcelain --branch
func parseGitStatus(out string) model.Status {
	ahead := false
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "## "):
			ahead = strings.Contains(line, "[ahead ")
		default:
			return model.Dirty
		}
	}
	if ahead {
		return model.Ahead
	}
	return model.Clean
}

func (g *gitDriver) matches(ctx context.Context) (bool, error) {
	url, err := g.originURL(ctx)
	if err != nil {
		return false, err
	}
	return url == g.src.URL, nil
}

// originURL reads the origin remote from .git/config, or asks git when .git is not a directory
func (g *gitDriver) originURL(ctx context.Context) (string, error) {
	if cfg, err := g.readFile(".git", "config"); err == nil {
		if file, err := loadMetadata(cfg); err == nil {
			if section, err := file.GetSection(`remote "origin"`); err == nil {
				return section.Key("url").String(), nil
			}
			return "", nil
		}
	}
	res, err := g.probe(ctx, "matches", g.src.Path, gitExe, "config", "--get", "remote.origin.url")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
