package vcs

import (
	"context"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
)

const bzrExe = "bzr"

type bzrDriver struct {
	*base
}

func (z *bzrDriver) checkout(ctx context.Context, opts Options) (string, error) {
	parent, err := z.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	z.infof("Branched '%s' with bazaar.", z.src.Name)
	args := []string{"branch", "--quiet"}
	if rev := z.src.Revision(); rev != "" {
		args = append(args, "-r", rev)
	}
	args = append(args, z.src.URL, z.src.Path)
	res, err := z.run(ctx, "checkout", parent, bzrExe, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (z *bzrDriver) update(ctx context.Context, opts Options) (string, error) {
	z.infof("Updated '%s' with bazaar.", z.src.Name)
	args := []string{"pull", "--quiet"}
	if rev := z.src.Revision(); rev != "" {
		args = append(args, "-r", rev)
	}
	if opts.Force {
		args = append(args, "--overwrite")
	}
	args = append(args, z.src.URL)
	res, err := z.run(ctx, "update", z.src.Path, bzrExe, args...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (z *bzrDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	res, err := z.run(ctx, "status", z.src.Path, bzrExe, "status")
	if err != nil {
		return "", "", err
	}
	st := model.Clean
	if strings.TrimSpace(res.Stdout) != "" {
		st = model.Dirty
	}
	if opts.Verbose {
		return st, res.Stdout, nil
	}
	return st, "", nil
}

func (z *bzrDriver) matches(ctx context.Context) (bool, error) {
	want := strings.TrimRight(z.src.URL, "/")
	if data, err := z.readFile(".bzr", "branch", "branch.conf"); err == nil {
		if cfg, err := loadMetadata(data); err == nil {
			section := cfg.Section("")
			if section.HasKey("parent_location") {
				return strings.TrimRight(section.Key("parent_location").String(), "/") == want, nil
			}
		}
	}
	res, err := z.run(ctx, "matches", z.src.Path, bzrExe, "info")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if key, value, found := strings.Cut(strings.TrimSpace(line), ":"); found && key == "parent branch" {
			return strings.TrimRight(strings.TrimSpace(value), "/") == want, nil
		}
	}
	return false, nil
}
