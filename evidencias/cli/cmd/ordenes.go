package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/transvepo/evidencias-stack/evidencias/cli/internal/client"
	"github.com/transvepo/evidencias-stack/evidencias/cli/pkg/output"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

var ordenesCmd = &cobra.Command{
	Use:     "ordenes",
	Aliases: []string{"orders"},
	Short:   "Delivery order management",
	Long:    "List delivery orders and move them through PENDIENTE, RECOLECTADO and ENTREGADO",
}

var ordenesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List delivery orders",
	Long:    "List delivery orders with their age in days. Orders pending for too long are shown in red.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")

		p := activeProfile(cmd)
		ordenes, err := client.NewOrdenesClient(p.ServerURL, p.Token).ListOrdenes(status)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}

		if format == "json" {
			return output.JSON(ordenes)
		}

		if len(ordenes) == 0 {
			output.Info("No orders found")
			return nil
		}

		renderOrdenes(ordenes)

		alerts := 0
		for _, o := range ordenes {
			if o.RequiereAlerta {
				alerts++
			}
		}
		if alerts > 0 {
			output.Warn("%d order(s) pending for too long", alerts)
		}
		return nil
	},
}

var ordenesGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one delivery order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		p := activeProfile(cmd)
		orden, err := client.NewOrdenesClient(p.ServerURL, p.Token).GetOrden(id)
		if err != nil {
			return fmt.Errorf("failed to get order %d: %w", id, err)
		}

		if format == "json" {
			return output.JSON(orden)
		}
		renderOrdenes([]models.Orden{*orden})
		if orden.Observaciones != nil {
			output.Info("Observaciones: %s", *orden.Observaciones)
		}
		return nil
	},
}

var ordenesSetStatusCmd = &cobra.Command{
	Use:   "set-status ID STATUS",
	Short: "Move a delivery order to a new status",
	Long:  "Move a delivery order to PENDIENTE, RECOLECTADO or ENTREGADO. Any transition is allowed.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		status, ok := models.ParseStatus(args[1])
		if !ok {
			return fmt.Errorf("invalid status %q (valid: %v)", args[1], models.Statuses())
		}

		p := activeProfile(cmd)
		if err := client.NewOrdenesClient(p.ServerURL, p.Token).SetStatus(id, string(status)); err != nil {
			return fmt.Errorf("failed to update order %d: %w", id, err)
		}

		output.Success("Order %d is now %s", id, status)
		return nil
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", raw)
	}
	return id, nil
}

func renderOrdenes(ordenes []models.Orden) {
	table := output.NewTable([]string{"ID", "Cliente", "Destino", "OC/Pedido", "Operador", "Permisionario", "Status", "Días", "Creada"})
	for _, o := range ordenes {
		row := []string{
			strconv.FormatInt(o.ID, 10),
			deref(o.Cliente),
			deref(o.Destino),
			deref(o.OCPedido),
			deref(o.Operador),
			o.Permisionario,
			string(o.EvidenciaStatus),
			strconv.Itoa(o.DiasDesdeCreacion),
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
		if o.RequiereAlerta {
			table.AddAlertRow(row)
		} else {
			table.AddRow(row)
		}
	}
	table.Render()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	rootCmd.AddCommand(ordenesCmd)
	ordenesCmd.AddCommand(ordenesListCmd)
	ordenesCmd.AddCommand(ordenesGetCmd)
	ordenesCmd.AddCommand(ordenesSetStatusCmd)

	ordenesListCmd.Flags().String("status", "", "only orders in this status")
}
