package main

import (
	"os"

	"github.com/yndnr/bestelldesk-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError(err)
		os.Exit(command.ExitCode(err))
	}
}
