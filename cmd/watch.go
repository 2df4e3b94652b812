package cmd

import (
	"errors"

	"campus-events/internal/realtime"
	"campus-events/models"

	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.pubnub == nil {
				return errors.New("realtime is not configured: set PUBNUB_SUBSCRIBE_KEY")
			}
			return realtime.Watch(cmd.Context(), a.pubnub, a.cfg.PubNubChannel, func(ev models.Event) {
				a.console.Events("New event", []models.Event{ev})
			})
		},
	}
}
