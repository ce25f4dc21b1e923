package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bestelldesk-go/internal/cli/output"
	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/core/service"
	"github.com/yndnr/bestelldesk-go/internal/infra/shutdown"
	"github.com/yndnr/bestelldesk-go/internal/storage"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/logger"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/metric"
	"github.com/yndnr/bestelldesk-go/pkg/crypto/adaptive"
)

// ExportCommand returns the export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write an encrypted backup of the configured collections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"O"},
				Usage:    "Backup file to write (replaced if it exists)",
				Required: true,
			},
			passphraseFlag(),
		},
		Action: exportAction,
	}
}

// ImportCommand returns the import command.
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace collections with the contents of a backup",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "Backup file to restore",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip confirmation",
			},
			passphraseFlag(),
		},
		Action: importAction,
	}
}

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Decrypt and decode a backup without touching the datastore",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "Backup file to check",
				Required: true,
			},
			passphraseFlag(),
		},
		Action: verifyAction,
	}
}

// InspectCommand returns the inspect command.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the unencrypted header of a backup",
		ArgsUsage: "FILE",
		Action:    inspectAction,
	}
}

func exportAction(c *cli.Context) error {
	e := getEnv(c)
	pass, err := readPassphrase(c, e, true)
	if err != nil {
		return err
	}
	defer clear(pass)

	var res *service.ExportResult
	err = e.withService(c.Context, "Exporting backup", func(ctx context.Context, svc *service.BackupService, _ storage.Store) error {
		var err error
		res, err = svc.Export(ctx, c.String("out"), pass)
		return err
	})
	if err != nil {
		return err
	}
	return e.render(exportView{res})
}

func importAction(c *cli.Context) error {
	e := getEnv(c)
	path := c.String("in")

	if !c.Bool("yes") {
		question := fmt.Sprintf("Replace the collections in the %s store with the contents of %s?", e.cfg.Storage.Backend, path)
		if !confirm(e, question) {
			fmt.Fprintln(e.stderr, "Cancelled.")
			return nil
		}
	}

	pass, err := readPassphrase(c, e, false)
	if err != nil {
		return err
	}
	defer clear(pass)

	var res *service.ImportResult
	err = e.withService(c.Context, "Restoring backup", func(ctx context.Context, svc *service.BackupService, st storage.Store) error {
		var err error
		res, err = svc.Import(ctx, path, pass)
		if err != nil {
			return err
		}
		if b, ok := st.(*storage.BadgerStore); ok {
			if _, gcErr := b.GC(ctx); gcErr != nil {
				e.log.Warn("value log gc failed", "error", gcErr)
			}
		}
		return nil
	})
	if res != nil && res.Report != nil {
		if rerr := e.render(importView{res}); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

func verifyAction(c *cli.Context) error {
	e := getEnv(c)
	pass, err := readPassphrase(c, e, false)
	if err != nil {
		return err
	}
	defer clear(pass)

	metrics := metric.NewBackupMetrics()
	defer e.writeMetrics(metrics)

	svc := e.newService(nil, metrics)
	spin := e.spinner("Verifying backup")
	res, err := svc.Verify(c.Context, c.String("in"), pass)
	spin.Stop()
	if err != nil {
		return err
	}
	return e.render(verifyView{res})
}

func inspectAction(c *cli.Context) error {
	e := getEnv(c)
	if c.NArg() != 1 {
		return errors.New("inspect: exactly one FILE argument required")
	}

	info, err := e.newService(nil, nil).Inspect(c.Args().First())
	if err != nil {
		return err
	}
	return e.render(info)
}

// newService builds a BackupService from the configuration.
func (e *env) newService(store service.DocumentStore, metrics *metric.BackupMetrics) *service.BackupService {
	b := e.cfg.Backup
	return service.NewBackupService(store, &service.BackupServiceConfig{
		Collections: b.Collections,
		Cipher:      adaptive.CipherType(b.Cipher),
		KDF:         b.KDFParams(),
		App:         b.App,
		Logger:      e.log,
		Metrics:     metrics,
	})
}

// withService opens the datastore, runs fn and writes the metrics
// textfile if one is configured.
func (e *env) withService(ctx context.Context, activity string, fn func(context.Context, *service.BackupService, storage.Store) error) error {
	st, err := storage.Open(ctx, e.cfg.Storage, logger.Slog(e.log))
	if err != nil {
		return domain.ErrDataStore.
			WithDetails(logger.RedactString(fmt.Sprintf("open %s store: %v", e.cfg.Storage.Backend, err))).
			WithCause(err)
	}

	metrics := metric.NewBackupMetrics()
	// Store gauges read the open database, so metrics are written first.
	defer func() {
		e.writeMetrics(metrics)
		if cerr := st.Close(); cerr != nil {
			e.log.Warn("close store failed", "error", cerr)
		}
	}()

	if b, ok := st.(*storage.BadgerStore); ok {
		if err := b.RegisterMetrics(metrics.Registry()); err != nil {
			e.log.Warn("register store metrics failed", "error", err)
		}
	}

	guard := shutdown.NewHandler()
	guard.OnSignal(func(sig os.Signal) {
		e.log.Warn("signal deferred until the operation completes", "signal", sig.String(), "activity", activity)
	})

	spin := e.spinner(activity)
	svc := e.newService(st, metrics)
	err = guard.Hold(func() error { return fn(ctx, svc, st) })
	spin.Stop()

	if sig := guard.Interrupted(); sig != nil {
		e.log.Info("operation finished after deferred signal", "signal", sig.String())
	}
	return err
}

func (e *env) writeMetrics(m *metric.BackupMetrics) {
	path := e.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		e.log.Warn("write metrics textfile failed", "path", path, "error", err)
	}
}

// spinner animates on a terminal while table output is selected.
func (e *env) spinner(activity string) *output.Spinner {
	s := output.NewSpinner(e.stderr, activity)
	if e.format == output.FormatTable {
		s.Start()
	}
	return s
}

// ============================================================================
// Table views
// ============================================================================

type exportView struct {
	*service.ExportResult
}

func (v exportView) Table() *output.Table {
	t := collectionsTable(v.Collections)
	t.AddFooter("Backup %s written to %s (%s, %s)", v.BackupID, v.Path, output.FormatBytes(int64(v.Bytes)), v.Cipher)
	t.AddFooter("Total: %d records in %d collections", v.Records, len(v.Collections))
	return t
}

type importView struct {
	*service.ImportResult
}

func (v importView) Table() *output.Table {
	t := collectionsTable(v.Report.Replaced)
	if v.Report.Failed != "" {
		t.AddRow(v.Report.Failed, "FAILED")
		t.AddFooter("Restore stopped at %s; collections listed before it were replaced", v.Report.Failed)
		return t
	}
	t.AddFooter("Backup %s from %s (%s) restored", v.BackupID, v.App, output.FormatValue(v.CreatedAt))
	t.AddFooter("Total: %d records in %d collections", v.Report.Records(), len(v.Report.Replaced))
	return t
}

type verifyView struct {
	*service.VerifyResult
}

func (v verifyView) Table() *output.Table {
	t := collectionsTable(v.Collections)
	t.AddFooter("Backup %s from %s (%s) is intact", v.BackupID, v.App, output.FormatValue(v.CreatedAt))
	if v.Envelope != nil {
		t.AddFooter("Sealed with %s, %s m=%d KiB t=%d p=%d",
			v.Envelope.Cipher, v.Envelope.KDF, v.Envelope.MemoryKiB, v.Envelope.Time, v.Envelope.Parallelism)
	}
	t.AddFooter("Total: %d records in %d collections", v.Records, len(v.Collections))
	return t
}

func collectionsTable(cols []service.CollectionResult) *output.Table {
	t := &output.Table{Headers: []string{"COLLECTION", "RECORDS"}}
	for _, c := range cols {
		t.AddRow(c.Name, strconv.Itoa(c.Records))
	}
	return t
}
