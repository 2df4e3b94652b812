package cmd

import (
	"time"

	"campus-events/internal/mockapi"
	"campus-events/models"

	"github.com/spf13/cobra"
)

type devUserFlags struct {
	email      string
	name       string
	university string
	homeLat    float64
	homeLng    float64
	signedOut  bool
}

func newDevBackendCmd(a *app) *cobra.Command {
	var (
		listen string
		user   devUserFlags
	)

	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Serve an in-memory backend with sample campuses and events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.DevListen
			}

			var identity *models.SessionIdentity
			if !user.signedOut {
				identity = &models.SessionIdentity{
					Email:      user.email,
					Name:       user.name,
					University: user.university,
				}
				if cmd.Flags().Changed("home-lat") && cmd.Flags().Changed("home-lng") {
					lat, lng := user.homeLat, user.homeLng
					identity.Latitude, identity.Longitude = &lat, &lng
				}
			}

			srv := mockapi.New(mockapi.Options{
				User:         identity,
				Universities: mockapi.SeedUniversities(),
				Events:       mockapi.SeedEvents(time.Now()),
				RateLimit:    a.cfg.DevRateLimit,
				Burst:        20,
				Logger:       a.logger,
			})
			return srv.ListenAndServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default DEV_LISTEN)")
	cmd.Flags().StringVar(&user.email, "email", "amina@strathmore.edu", "signed-in user email")
	cmd.Flags().StringVar(&user.name, "name", "Amina", "signed-in user name")
	cmd.Flags().StringVar(&user.university, "university", "Strathmore University", "signed-in user campus")
	cmd.Flags().Float64Var(&user.homeLat, "home-lat", 0, "home campus latitude")
	cmd.Flags().Float64Var(&user.homeLng, "home-lng", 0, "home campus longitude")
	cmd.Flags().BoolVar(&user.signedOut, "signed-out", false, "serve a signed-out session")
	return cmd
}
