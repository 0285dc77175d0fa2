package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/RedirectMap/internal/cli"
	"github.com/JonMunkholm/RedirectMap/internal/core"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
