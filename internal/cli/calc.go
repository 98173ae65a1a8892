package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"Conduit/internal/calc/conductor"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/premium/importer"
	"Conduit/internal/calc/report"
	"Conduit/internal/calc/tables"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// projectFile is the YAML form of a calculation kept next to a drawing set.
type projectFile struct {
	Material    string `yaml:"material"`
	report.Meta `yaml:",inline"`
	Conductors  []conductor.Input `yaml:"conductors"`
}

type calcOptions struct {
	material   string
	conductors []string
	project    string
	xlsx       string
	format     string
	output     string
	size       string
	meta       report.Meta
}

func newCalcCmd(a *app) *cobra.Command {
	var opts calcOptions

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Select the smallest compliant conduit for a set of conductors",
		Long: `Computes the required area of the conductors, applies the fill factor of
Article 310-15(b)(2)(A) and evaluates every trade size of the material.

Conductors come from a project file, a spreadsheet and --conductor flags, in
that order. The exit code is 0 when a trade size complies, 1 when none does
and 2 on any error.`,
		Example: `  # Three THW 12 in EMT
  conduitctl calc --material EMT --conductor THW:12:3

  # Mixed set exported to PDF
  conduitctl calc --material PVC --conductor THHN:10:4 --conductor THW:8:1 --format pdf --output panel-a.pdf

  # Project file with a size check
  conduitctl calc --project tower-b.yaml --size 3/4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalc(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.material, "material", "m", "", "conduit material (EMT, PVC, RMC, IMC)")
	cmd.Flags().StringArrayVarP(&opts.conductors, "conductor", "c", nil, "conductor as INSULATION:GAUGE[:QUANTITY], repeatable")
	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "YAML project file")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "XLSX sheet with insulation, gauge and quantity columns")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(report.FormatText), "output format: text, json, pdf or xlsx")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&opts.size, "size", "", "only check this trade size")
	cmd.Flags().StringVar(&opts.meta.Project, "project-name", "", "project name printed on the report")
	cmd.Flags().StringVar(&opts.meta.Author, "author", "", "author printed on the report")
	cmd.Flags().StringVar(&opts.meta.Title, "title", "", "report title")

	return cmd
}

func runCalc(cmd *cobra.Command, a *app, opts calcOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	req := conduit.Request{Material: opts.material}
	meta := opts.meta

	if opts.project != "" {
		pf, err := readProject(opts.project)
		if err != nil {
			return err
		}
		if req.Material == "" {
			req.Material = pf.Material
		}
		meta = mergeMeta(meta, pf.Meta)
		req.Conductors = pf.Conductors
	}

	// Project conductors, then sheet rows, then flags.
	entries, material, err := req.Resolve(a.tables)
	if err != nil {
		return err
	}
	if opts.xlsx != "" {
		sheet, err := readSheet(opts.xlsx, a.tables)
		if err != nil {
			return err
		}
		entries = append(entries, sheet.Entries...)
	}
	flags := make([]conductor.Input, 0, len(opts.conductors))
	for _, c := range opts.conductors {
		in, err := parseConductorFlag(c)
		if err != nil {
			return err
		}
		flags = append(flags, in)
	}
	parsed, err := conductor.ParseAll(a.tables, flags)
	if err != nil {
		return fmt.Errorf("--conductor: %w", err)
	}
	entries = append(entries, parsed...)
	sel := conduit.NewSelector(a.tables)

	if opts.size != "" {
		return runCheck(cmd, sel, entries, material, opts.size, format)
	}

	rep, err := sel.Select(entries, material)
	if err != nil {
		return err
	}
	doc := report.NewDocument(rep, meta, a.now())

	if opts.output != "" {
		if err := writeFile(opts.output, format, doc); err != nil {
			return err
		}
		log.Info().Str("file", opts.output).Str("document", doc.ID).Msg("report written")
	} else {
		out := cmd.OutOrStdout()
		if (format == report.FormatPDF || format == report.FormatXLSX) && isTerminal(out) {
			return fmt.Errorf("%s output is binary, use --output", format)
		}
		if err := report.Write(out, format, doc); err != nil {
			return fmt.Errorf("write %s report: %w", format, err)
		}
	}

	fmt.Fprintln(cmd.ErrOrStderr(), statusLine(cmd.ErrOrStderr(), rep))
	if rep.NoneCompliant() {
		return ErrNoneCompliant
	}
	return nil
}

func writeFile(name string, format report.Format, doc report.Document) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return writeAndClose(f, format, doc)
}

// writeAndClose reports a failed Close, since that is where buffered data
// reaches the disk.
func writeAndClose(wc io.WriteCloser, format report.Format, doc report.Document) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	if err := report.Write(wc, format, doc); err != nil {
		return fmt.Errorf("write %s report: %w", format, err)
	}
	return nil
}

func runCheck(cmd *cobra.Command, sel *conduit.Selector, entries []conductor.Entry, material tables.Material, size string, format report.Format) error {
	res, err := sel.Check(entries, material, size)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case report.FormatText:
		fmt.Fprintln(out, checkLine(out, string(material), res))
	default:
		return fmt.Errorf("--size supports text or json output, not %s", format)
	}
	if !res.Compliant {
		return ErrNoneCompliant
	}
	return nil
}

// parseConductorFlag reads INSULATION:GAUGE[:QUANTITY]. Quantity defaults
// to one. Insulation is case-insensitive on the command line.
func parseConductorFlag(s string) (conductor.Input, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return conductor.Input{}, fmt.Errorf("conductor %q: want INSULATION:GAUGE[:QUANTITY]", s)
	}
	in := conductor.Input{
		Insulation: strings.ToUpper(strings.TrimSpace(parts[0])),
		Gauge:      strings.TrimSpace(parts[1]),
		Quantity:   json.Number("1"),
	}
	if len(parts) == 3 {
		in.Quantity = json.Number(strings.TrimSpace(parts[2]))
	}
	return in, nil
}

func readProject(name string) (projectFile, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return projectFile{}, err
	}
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return projectFile{}, fmt.Errorf("project %s: %w", name, err)
	}
	return pf, nil
}

func readSheet(name string, t *tables.Tables) (importer.Sheet, error) {
	f, err := os.Open(name)
	if err != nil {
		return importer.Sheet{}, err
	}
	defer f.Close()

	sheet, err := importer.Read(f, t)
	if err != nil {
		return sheet, fmt.Errorf("%s: %w", name, err)
	}
	if len(sheet.Errors) > 0 {
		for _, re := range sheet.Errors {
			log.Error().Int("row", re.Row).Str("field", re.Field).Msg(re.Error)
		}
		return sheet, fmt.Errorf("%s: %d invalid row(s)", name, len(sheet.Errors))
	}
	return sheet, nil
}

// mergeMeta fills the blanks of flags from the project file.
func mergeMeta(flags, file report.Meta) report.Meta {
	if flags.Project == "" {
		flags.Project = file.Project
	}
	if flags.Author == "" {
		flags.Author = file.Author
	}
	if flags.Title == "" {
		flags.Title = file.Title
	}
	return flags
}
