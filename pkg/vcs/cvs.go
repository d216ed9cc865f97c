package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/mrdev/pkg/model"
)

const (
	cvsExe         = "cvs"
	defaultTagFile = "setup.py"
)

// cvsDriver checks out the module named by the URL of the source
type cvsDriver struct {
	*base
}

func (c *cvsDriver) root() string {
	if root, ok := c.src.Option(model.OptCVSRoot); ok {
		return root
	}
	return os.Getenv("CVSROOT")
}

// command prefixes cvs arguments with the repository root
func (c *cvsDriver) command(args ...string) []string {
	cmd := []string{"-q"}
	if root := c.root(); root != "" {
		cmd = append(cmd, "-d", root)
	}
	return append(cmd, args...)
}

// tag to check out: explicit tag, newest tag, else the head
func (c *cvsDriver) tag(ctx context.Context, op string) (string, error) {
	if tag, ok := c.src.Option(model.OptTag); ok && tag != "" {
		return tag, nil
	}
	newest, err := c.src.BoolOption(model.OptNewestTag, false)
	if err != nil || !newest {
		return "", err
	}
	tagFile, ok := c.src.Option(model.OptTagFile)
	if !ok || tagFile == "" {
		tagFile = defaultTagFile
	}
	parent := filepath.Dir(c.src.Path)
	res, err := c.run(ctx, op, parent, cvsExe, c.command("rlog", "-h", c.src.URL+"/"+tagFile)...)
	if err != nil {
		return "", err
	}
	prefix, _ := c.src.Option(model.OptNewestTagPrefix)
	tag := NewestTag(parseCVSTags(res.Stdout), prefix)
	if tag != "" {
		c.infof("Picked newest tag '%s' for '%s'.", tag, c.src.Name)
	}
	return tag, nil
}

// parseCVSTags reads the symbolic names of rlog output
func parseCVSTags(out string) []string {
	var tags []string
	inNames := false
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "symbolic names:") {
			inNames = true
			continue
		}
		if !inNames {
			continue
		}
		if !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, " ") {
			break
		}
		name, _, found := strings.Cut(strings.TrimSpace(line), ":")
		if found && name != "" {
			tags = append(tags, name)
		}
	}
	return tags
}

func (c *cvsDriver) checkout(ctx context.Context, opts Options) (string, error) {
	parent, err := c.prepareParent("checkout")
	if err != nil {
		return "", err
	}
	tag, err := c.tag(ctx, "checkout")
	if err != nil {
		return "", err
	}
	c.infof("Checked out '%s' with cvs.", c.src.Name)
	args := []string{"checkout", "-P", "-f", "-d", filepath.Base(c.src.Path)}
	if tag != "" {
		args = append(args, "-r", tag)
	}
	args = append(args, c.src.URL)
	res, err := c.run(ctx, "checkout", parent, cvsExe, c.command(args...)...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (c *cvsDriver) update(ctx context.Context, opts Options) (string, error) {
	tag, err := c.tag(ctx, "update")
	if err != nil {
		return "", err
	}
	c.infof("Updated '%s' with cvs.", c.src.Name)
	args := []string{"update", "-dP"}
	if tag != "" {
		args = append(args, "-r", tag)
	} else {
		args = append(args, "-A")
	}
	res, err := c.run(ctx, "update", c.src.Path, cvsExe, c.command(args...)...)
	if err != nil {
		return "", err
	}
	return output(opts, res), nil
}

func (c *cvsDriver) status(ctx context.Context, opts Options) (model.Status, string, error) {
	res, err := c.run(ctx, "status", c.src.Path, cvsExe, "-q", "-n", "update")
	if err != nil {
		return "", "", err
	}
	st := parseCVSStatus(res.Stdout)
	if opts.Verbose {
		return st, res.Stdout, nil
	}
	return st, "", nil
}

// parseCVSStatus reads the output of a dry-run update: C is a conflict,
// M, A and R are local changes. Incoming changes and unknown files are ignored.
func parseCVSStatus(out string) model.Status {
	st := model.Clean
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 2 || line[1] != ' ' {
			continue
		}
		switch line[0] {
		case 'C':
			return model.Conflict
		case 'M', 'A', 'R':
			st = model.Dirty
		}
	}
	return st
}

func (c *cvsDriver) matches(context.Context) (bool, error) {
	repository, err := c.readFile("CVS", "Repository")
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, c.fail(nil, "matches", "", "cannot read CVS/Repository: %v", err)
	}
	if strings.TrimSpace(repository) != c.src.URL {
		return false, nil
	}
	root := c.root()
	if root == "" {
		return true, nil
	}
	recorded, err := c.readFile("CVS", "Root")
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(recorded) == root, nil
}
