package model

import (
	"github.com/oneconcern/mrdev/pkg/errors"
)

// ErrConfiguration signals a malformed source definition or batch option.
//
// Configuration errors are always fatal: they are detected before any working
// copy is touched.
var ErrConfiguration = errors.New("configuration error")

func configErrorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...).Wrap(ErrConfiguration)
}
