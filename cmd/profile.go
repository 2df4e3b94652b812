package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"campus-events/internal/status"
	"campus-events/models"
	"campus-events/services"

	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your reservations and hosted events",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.profile(cmd.Context())
			if err != nil {
				return err
			}
			p, err := w.Load(cmd.Context())
			if err != nil {
				return err
			}
			a.console.Events("My reservations", p.Reservations)
			a.console.Events("Hosted by me", p.Hosted)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <event-id>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.profile(cmd.Context())
			if err != nil {
				return err
			}
			return w.CancelReservation(cmd.Context(), args[0])
		},
	})

	var yes bool
	del := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := a.profile(ctx)
			if err != nil {
				return err
			}
			if _, err := w.Load(ctx); err != nil {
				return err
			}
			confirm := func(ev models.Event) bool {
				return yes || prompt(cmd.InOrStdin(), a.out, fmt.Sprintf("Delete %q? [y/N] ", ev.Title))
			}
			err = w.DeleteEvent(ctx, args[0], confirm)
			if errors.Is(err, status.ErrNotConfirmed) {
				dimColor.Fprintln(a.out, "Not deleted.")
				return nil
			}
			return err
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(del)

	return cmd
}

func (a *app) profile(ctx context.Context) (*services.ProfileWorkflow, error) {
	identity, err := services.LoadSession(ctx, a.client)
	if err != nil {
		return nil, err
	}
	return services.NewProfileWorkflow(a.client, identity, a.console, a.monitor, a.logger), nil
}

func prompt(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
