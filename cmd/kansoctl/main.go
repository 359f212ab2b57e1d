package main

import (
	"os"

	"github.com/comitanigiacomo/kanso-progress/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
