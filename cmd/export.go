package cmd

import (
	"fmt"
	"io"
	"os"

	"campus-events/internal/calendar"
	"campus-events/models"
	"campus-events/services"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		reserved bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				events []models.Event
				name   string
			)
			if reserved {
				w, err := a.profile(ctx)
				if err != nil {
					return err
				}
				p, err := w.Load(ctx)
				if err != nil {
					return err
				}
				events, name = p.Reservations, "My reservations"
			} else {
				page := services.NewPageSession(a.client, a.locator(), services.NopPresenter,
					services.WithPageConfig(a.pageConfig()),
					services.WithPageMonitor(a.monitor),
					services.WithPageLogger(a.logger),
				)
				if err := page.Start(ctx); err != nil {
					return err
				}
				events = append(page.Feed().Events(), page.Feed().CustomEvents()...)
				name = "Campus events"
				if label := page.Feed().ActiveLabel(); label != "" {
					name += " · " + label
				}
			}

			var w io.Writer = a.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := calendar.Write(w, events, calendar.Options{Name: name, Currency: a.cfg.Currency}); err != nil {
				return fmt.Errorf("write calendar: %w", err)
			}
			if w != a.out {
				a.console.Notify(services.LevelSuccess, fmt.Sprintf("Exported %d events to %s", len(events), output))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reserved, "reserved", false, "export your reservations instead of the feed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
