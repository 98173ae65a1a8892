package cli

import (
	"encoding/json"
	"fmt"

	"Conduit/internal/calc/tables"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newTablesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show conductor areas and conduit trade sizes of the active edition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.tables.Catalog()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}

			fmt.Fprintln(out, heading(out, fmt.Sprintf("%s (edition %s)", c.Standard, c.Version)))
			fmt.Fprintln(out)
			fmt.Fprintln(out, heading(out, "Conductor area (mm²)"))
			fmt.Fprintln(out, conductorTable(c))
			fmt.Fprintln(out)
			fmt.Fprintln(out, heading(out, "Conduit internal area (mm²)"))
			for _, m := range c.Order.Materials {
				fmt.Fprintln(out, dim(out, string(m)))
				fmt.Fprintln(out, conduitTable(c.Conduits[m]))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

// conductorTable has one row per gauge and one column per insulation.
func conductorTable(c tables.Catalog) string {
	headers := []string{"Gauge"}
	for _, ins := range c.Order.Insulations {
		headers = append(headers, string(ins))
	}

	var rows [][]string
	if len(c.Order.Insulations) > 0 {
		for i, g := range c.Conductors[c.Order.Insulations[0]] {
			row := []string{g.Gauge}
			for _, ins := range c.Order.Insulations {
				row = append(row, fmt.Sprintf("%.2f", c.Conductors[ins][i].AreaMM2))
			}
			rows = append(rows, row)
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func conduitTable(sizes []tables.SizeRow) string {
	rows := make([][]string, 0, len(sizes))
	for _, s := range sizes {
		rows = append(rows, []string{s.TradeSize + "\"", fmt.Sprintf("%.0f", s.AreaMM2)})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Trade size", "Area").
		Rows(rows...).
		String()
}

func newEditionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "editions",
		Short: "List the bundled reference table editions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := tables.Editions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, t := range all {
				line := fmt.Sprintf("%s\t%s", t.Standard(), t.Version())
				if i == 0 {
					line += "\t(default)"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
