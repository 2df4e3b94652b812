package cmd

import (
	"context"
	"errors"
	"time"

	"campus-events/utils"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend and the autocomplete cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			healthy := true

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if _, err := a.client.Session(ctx); err != nil {
				healthy = false
				errorColor.Fprintf(a.out, "backend %s: %v\n", a.cfg.BaseURL, err)
			} else {
				successColor.Fprintf(a.out, "backend %s: ok\n", a.cfg.BaseURL)
			}

			switch {
			case a.redis != nil:
				if err := utils.RedisHealthCheck(a.redis); err != nil {
					healthy = false
					errorColor.Fprintf(a.out, "redis: %v\n", err)
				} else {
					successColor.Fprintln(a.out, "redis: ok")
				}
			case a.cfg.RedisURL != "":
				healthy = false
				errorColor.Fprintln(a.out, "redis: unreachable")
			default:
				dimColor.Fprintln(a.out, "redis: not configured")
			}

			if !healthy {
				return errors.New("unhealthy")
			}
			return nil
		},
	}
}
