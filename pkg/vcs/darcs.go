package vcs

import (
	"context"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
)

const darcsExe = "darcs"

type darcsDriver struct {
	*base
}

func (d *darcsDriver) checkout(ctx context.Context, opts Options) (string, error) {
	parent, err := d.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	d.infof("Cloned '%s' with darcs.", d.src.Name)
	args := []string{"get", "--quiet"}
	if tag, ok := d.src.Option(model.OptTag); ok && tag != "" {
		args = append(args, "--tag", tag)
	}
	args = append(args, d.src.URL, d.src.Path)
	res, err := d.run(ctx, "checkout", parent, darcsExe, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (d *darcsDriver) update(ctx context.Context, opts Options) (string, error) {
	d.infof("Updated '%s' with darcs.", d.src.Name)
	res, err := d.run(ctx, "update", d.src.Path, darcsExe, "pull", "--all", "--quiet")
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (d *darcsDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	// whatsnew exits with 1 when there are no changes
	res, err := d.probe(ctx, "status", d.src.Path, darcsExe, "whatsnew", "--summary")
	if err != nil {
		return "", "", err
	}
	var st model.Status
	switch {
	case res.ExitCode == 1 || strings.Contains(res.Stdout, "No changes!"):
		st = model.Clean
	case res.ExitCode == 0:
		st = model.Dirty
	default:
		return "", "", d.fail(nil, "status", res.Output(), "darcs whatsnew exited with status %d", res.ExitCode)
	}
	if opts.Verbose {
		return st, res.Stdout, nil
	}
	return st, "", nil
}

func (d *darcsDriver) matches(context.Context) (bool, error) {
	data, err := d.readFile("_darcs", "prefs", "defaultrepo")
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, d.fail(nil, "matches", "", "cannot read the default repository: %v", err)
	}
	first, _, _ := strings.Cut(data, "\n")
	return strings.TrimSpace(first) == d.src.URL, nil
}
