package main

import (
	"os"

	"github.com/transvepo/evidencias-stack/evidencias/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
