// Copyright © 2026 One Concern

package main

import (
	"github.com/oneconcern/mrdev/cmd/mrdev/cmd"
)

func main() {
	cmd.Execute()
}
