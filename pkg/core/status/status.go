// Package status exports errors produced by the core package.
package status

import (
	"github.com/oneconcern/mrdev/pkg/errors"
)

var (
	// ErrBatchFailed indicates that some operations of a checkout or update batch failed
	ErrBatchFailed = errors.New("there have been errors, see messages above")

	// ErrStatusFailed indicates that the status of a working copy could not be determined
	ErrStatusFailed = errors.New("can not get status")

	// ErrMatchesFailed indicates that a working copy could not be compared with its source
	ErrMatchesFailed = errors.New("can not check the source of the working copy")

	// ErrNoSource indicates a package without source definition
	ErrNoSource = errors.New("no source defined")

	// ErrUnknownKind indicates a source with a repository type no backend supports
	ErrUnknownKind = errors.New("unknown repository type")
)
