package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bestelldesk-go/internal/cli/config"
	"github.com/yndnr/bestelldesk-go/internal/cli/output"
	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/infra/buildinfo"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/logger"
)

const envKey = "env"

// Exit codes, following sysexits.h.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitDataErr     = 65 // malformed or unsupported backup
	ExitUnavailable = 69 // datastore failure
	ExitIOErr       = 74 // backup file i/o
	ExitNoPerm      = 77 // wrong passphrase or tampered backup
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "bestelldesk-backup",
		Usage:   "Encrypted backup and restore of the BestellDesk datastore",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExportCommand(),
			ImportCommand(),
			VerifyCommand(),
			InspectCommand(),
			ConfigCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"BESTELLDESK_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:  "metrics-textfile",
			Usage: "Write Prometheus metrics to this file after the command",
		},
	}
}

// env is the per-invocation state built by setup.
type env struct {
	cfg    *config.Config
	log    logger.Logger
	format output.Format
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// setup loads the configuration and builds the logger.
func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}

	c.App.Metadata[envKey] = &env{
		cfg:    cfg,
		log:    log,
		format: format,
		stdout: c.App.Writer,
		stderr: c.App.ErrWriter,
		stdin:  c.App.Reader,
	}
	return nil
}

// flagOverrides maps explicitly set global flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	for flag, key := range map[string]string{
		"log-level":        "log.level",
		"log-format":       "log.format",
		"metrics-textfile": "metrics.textfile",
	} {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

func getEnv(c *cli.Context) *env {
	if e, ok := c.App.Metadata[envKey].(*env); ok {
		return e
	}
	// Commands run through App always pass setup first.
	panic("command: setup did not run")
}

// render writes v in the selected output format.
func (e *env) render(v any) error {
	return output.NewFormatter(e.format).Format(e.stdout, v)
}

// ExitCode maps an error returned by App to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch domain.KindOf(err) {
	case domain.KindFormat:
		return ExitDataErr
	case domain.KindDataStore:
		return ExitUnavailable
	case domain.KindIO:
		return ExitIOErr
	case domain.KindCrypto:
		return ExitNoPerm
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return ExitFailure
}

// PrintError prints an error message to stderr.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
