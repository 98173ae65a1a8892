// Package cli implements the conduitctl command line: one-off fill
// calculations, report export and a view of the bundled reference tables.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"Conduit/internal/calc/tables"
	"Conduit/internal/config"
	"Conduit/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Process exit codes.
const (
	ExitCompliant     = 0
	ExitNoneCompliant = 1
	ExitError         = 2
)

// ErrNoneCompliant is returned by calc when no trade size of the material
// can hold the conductors. The report has still been written.
var ErrNoneCompliant = errors.New("no trade size complies")

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfg    *config.Config
	tables *tables.Tables
	now    func() time.Time

	logLevel   string
	tablesFile string
	edition    string
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRootCmd creates the conduitctl root command with all subcommands.
func NewRootCmd(version string) *cobra.Command {
	a := &app{now: time.Now}

	cmd := &cobra.Command{
		Use:           "conduitctl",
		Short:         "Conduit fill calculator",
		Long:          "conduitctl sizes conduit for a set of conductors using the bundled NOM-001-SEDE reference tables.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&a.tablesFile, "tables", "", "YAML edition file (overrides TABLES_FILE)")
	cmd.PersistentFlags().StringVar(&a.edition, "edition", "", "bundled edition by standard name (overrides EDITION)")

	cmd.AddCommand(newCalcCmd(a), newTablesCmd(a), newEditionsCmd())
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.tablesFile != "" {
		cfg.TablesFile = a.tablesFile
	}
	if a.edition != "" {
		cfg.Edition = a.edition
	}
	if err := logging.Init(cfg.LogLevel, logging.FormatConsole, cmd.ErrOrStderr()); err != nil {
		return err
	}

	t, err := cfg.Tables()
	if err != nil {
		return fmt.Errorf("reference tables: %w", err)
	}
	log.Debug().Str("standard", t.Standard()).Str("edition", t.Version()).Msg("tables loaded")

	a.cfg = cfg
	a.tables = t
	return nil
}

// ExitCode maps the error returned by Execute to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitCompliant
	case errors.Is(err, ErrNoneCompliant):
		return ExitNoneCompliant
	default:
		return ExitError
	}
}

// Execute runs the root command against os.Args and reports errors on
// stderr. It returns the process exit code.
func Execute(version string) int {
	cmd := NewRootCmd(version)
	err := cmd.Execute()
	code := ExitCode(err)
	if code == ExitError {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return code
}
