package vcs

import (
	"context"
	"path/filepath"

	"github.com/oneconcern/mrdev/pkg/model"
	"github.com/oneconcern/mrdev/pkg/vcs/status"
)

// fsDriver serves directories managed outside of mrdev.
// The URL of such a source is the base name of its directory.
type fsDriver struct {
	*base
}

func (f *fsDriver) checkout(context.Context, Options) (string, error) {
	return "", f.fail(status.ErrInvalidWorkingCopy, "checkout", "",
		"directory '%s' for package '%s' doesn't exist", f.src.Path, f.src.Name)
}

func (f *fsDriver) update(context.Context, Options) (string, error) {
	f.infof("Filesystem package '%s' doesn't need an update.", f.src.Name)
	return "", nil
}

func (f *fsDriver) status(context.Context, Options) (model.Status, string, error) {
	return model.Clean, "", nil
}

func (f *fsDriver) matches(context.Context) (bool, error) {
	return filepath.Base(f.src.Path) == f.src.URL, nil
}
