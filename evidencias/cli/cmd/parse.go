package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/transvepo/evidencias-stack/evidencias/cli/pkg/output"
	"github.com/transvepo/evidencias-stack/evidencias/internal/carrier"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/parser"
	"github.com/transvepo/evidencias-stack/evidencias/internal/service"
)

// ParsePreview is what the service would record for a message.
type ParsePreview struct {
	Accepted      bool          `json:"accepted"`
	Fields        models.Fields `json:"fields"`
	Permisionario string        `json:"permisionario"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [FILE|-]",
	Short: "Preview how a driver message is parsed",
	Long: `Parse a driver message offline and show the fields the service would
record, the carrier it resolves to and whether the ingestion gate accepts it.
Reads standard input when FILE is omitted or "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		raw, err := readMessage(cmd, args)
		if err != nil {
			return err
		}

		mapping := map[string]string{}
		if path, _ := cmd.Flags().GetString("carriers"); path != "" {
			mapping, err = carrier.LoadFile(path)
			if err != nil {
				return err
			}
		}
		markers, _ := cmd.Flags().GetStringSlice("marker")

		preview := previewMessage(raw, carrier.NewResolver(mapping), service.NewMarkerGate(markers...))

		if format == "json" {
			return output.JSON(preview)
		}
		renderPreview(preview)
		return nil
	},
}

func readMessage(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	return string(data), nil
}

func previewMessage(raw string, carriers *carrier.Resolver, gate service.Gate) ParsePreview {
	fields := parser.Parse(raw)
	return ParsePreview{
		Accepted:      gate.Accepts(raw),
		Fields:        fields,
		Permisionario: carriers.Resolve(deref(fields.Operador)),
	}
}

func renderPreview(p ParsePreview) {
	table := output.NewTable([]string{"Field", "Value"})
	for _, line := range []struct {
		label string
		value *string
	}{
		{parser.LabelCliente, p.Fields.Cliente},
		{parser.LabelDestino, p.Fields.Destino},
		{parser.LabelOCPedido, p.Fields.OCPedido},
		{parser.LabelEquipo, p.Fields.Equipo},
		{parser.LabelOperador, p.Fields.Operador},
		{parser.LabelStatus, p.Fields.StatusEntrega},
		{parser.LabelHrEntrega, p.Fields.HrEntrega},
		{parser.LabelObservaciones, p.Fields.Observaciones},
	} {
		table.AddRow([]string{line.label, deref(line.value)})
	}
	table.AddRow([]string{"PERMISIONARIO", p.Permisionario})
	table.Render()

	if p.Accepted {
		output.Success("Message would be recorded as %s", models.StatusPendiente)
	} else {
		output.Warn("Message would be ignored")
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("carriers", "", "operator -> carrier map (JSON or YAML)")
	parseCmd.Flags().StringSlice("marker", nil, "accepted marker (default \"STATUS: ENTREGADO\"); repeatable")
}
