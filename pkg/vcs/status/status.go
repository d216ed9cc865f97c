// Package status exports errors produced by the vcs package.
package status

import (
	"github.com/oneconcern/mrdev/pkg/errors"
)

var (
	// ErrRepositoryMismatch indicates that an existing working copy was made from another repository
	ErrRepositoryMismatch = errors.New("existing package differs from expected source")

	// ErrWorkingCopyDirty indicates that local modifications would be overwritten
	ErrWorkingCopyDirty = errors.New("working copy is dirty")

	// ErrMissingExecutable indicates that the command line tool of a backend is not installed
	ErrMissingExecutable = errors.New("executable not found")

	// ErrBackendExecution indicates that a version control command failed
	ErrBackendExecution = errors.New("version control command failed")

	// ErrInvalidWorkingCopy indicates that the working copy is missing or unusable
	ErrInvalidWorkingCopy = errors.New("invalid working copy")

	// ErrUnsupportedKind indicates a repository kind without backend
	ErrUnsupportedKind = errors.New("unsupported repository kind")
)
