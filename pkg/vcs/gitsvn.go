package vcs

import (
	"context"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
)

// gitSVNDriver manages a git clone of a subversion repository
type gitSVNDriver struct {
	gitDriver
}

func (g *gitSVNDriver) checkout(ctx context.Context, opts Options) (string, error) {
	parent, err := g.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	g.infof("Cloned '%s' with git-svn from '%s'.", g.src.Name, g.src.URL)
	args := []string{"svn", "clone", "--quiet"}
	if rev := g.src.Revision(); rev != "" {
		args = append(args, "-r", rev)
	}
	args = append(args, g.src.URL, g.src.Path)
	res, err := g.run(ctx, "checkout", parent, gitExe, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (g *gitSVNDriver) update(ctx context.Context, opts Options) (string, error) {
	g.infof("Updated '%s' with git-svn.", g.src.Name)
	res, err := g.git(ctx, "update", "svn", "rebase", "--quiet")
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (g *gitSVNDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	st, out, err := g.gitDriver.status(ctx, opts)
	if err != nil || st != model.Clean {
		return st, out, err
	}
	res, err := g.git(ctx, "status", "log", "--oneline", "refs/remotes/git-svn..HEAD")
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(res.Stdout) != "" {
		st = model.Ahead
	}
	if opts.Verbose {
		out = strings.TrimSpace(strings.Join([]string{out, res.Stdout}, "\n"))
	}
	return st, out, nil
}

func (g *gitSVNDriver) matches(ctx context.Context) (bool, error) {
	res, err := g.git(ctx, "matches", "svn", "info", "--url")
	if err != nil {
		return false, err
	}
	return strings.TrimRight(strings.TrimSpace(res.Stdout), "/") == strings.TrimRight(g.src.URL, "/"), nil
}
