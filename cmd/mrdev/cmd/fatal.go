// Copyright © 2026 One Concern

package cmd

import (
	"fmt"
	"io"
	"os"
)

var (
	// globals used to patch over calls to os.Exit() during test
	osExit           = os.Exit
	stderr io.Writer = os.Stderr
)

// wrapFatalln reports an error on stderr and exits with status 1
func wrapFatalln(msg string, err error) {
	if err == nil {
		_, _ = fmt.Fprintln(stderr, msg)
	} else {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", msg, err)
	}
	osExit(1)
}
