package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/transvepo/evidencias-stack/common/messaging"
	natsclient "github.com/transvepo/evidencias-stack/common/messaging/nats"
	"github.com/transvepo/evidencias-stack/evidencias/cli/pkg/output"
	"github.com/transvepo/evidencias-stack/evidencias/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Lifecycle event stream",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print evidencia lifecycle events as they are published",
	Long:  "Subscribe to evidencias.> on NATS and print every created and status_updated event until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = activeProfile(cmd).NATSURL
		}

		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = natsURL
		natsCfg.Name = "evctl"
		bus, err := natsclient.NewClient(natsCfg)
		if err != nil {
			return err
		}
		defer bus.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sub, err := bus.Subscribe(messaging.SubjectEvidenciasAll, func(_ context.Context, msg *messaging.Message) error {
			ev, err := events.Decode(msg.Data)
			if err != nil {
				output.Warn("undecodable event on %s: %v", msg.Subject, err)
				return nil
			}
			if format == "json" {
				return output.JSON(ev)
			}
			output.Info("%s", formatEvent(ev))
			return nil
		})
		if err != nil {
			return err
		}
		defer func() {
			if sub.IsValid() {
				_ = sub.Unsubscribe()
			}
		}()

		// The interest must reach the server before we report that we are watching.
		if err := bus.Flush(ctx); err != nil {
			return fmt.Errorf("subscribe %s: %w", sub.Subject(), err)
		}

		output.Info("Watching %s on %s (Ctrl+C to stop)", sub.Subject(), natsURL)
		<-ctx.Done()
		if !bus.IsConnected() {
			output.Warn("connection to %s was lost while watching", natsURL)
		}
		return nil
	},
}

func formatEvent(ev *events.Event) string {
	ts := ev.OccurredAt.Local().Format(time.DateTime)
	switch ev.Type {
	case events.TypeCreated:
		cliente, operador, permisionario := "-", "-", "-"
		if ev.Evidencia != nil {
			cliente = deref(ev.Evidencia.Cliente)
			operador = deref(ev.Evidencia.Operador)
			permisionario = ev.Evidencia.Permisionario
		}
		return fmt.Sprintf("%s  created         #%d  %s  cliente=%s operador=%s permisionario=%s",
			ts, ev.EvidenciaID, ev.EvidenciaStatus, cliente, operador, permisionario)
	case events.TypeStatusUpdated:
		return fmt.Sprintf("%s  status_updated  #%d  %s", ts, ev.EvidenciaID, ev.EvidenciaStatus)
	default:
		return fmt.Sprintf("%s  %s  #%d  %s", ts, ev.Type, ev.EvidenciaID, ev.EvidenciaStatus)
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)

	eventsWatchCmd.Flags().String("nats", "", "NATS URL (default: profile nats_url)")
}
