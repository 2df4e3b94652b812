package cmd

import (
	"context"
	"fmt"
	"strings"

	"campus-events/services"

	"github.com/spf13/cobra"
)

type uploadFlags struct {
	title       string
	description string
	campus      string
	openTo      string
	start       string
	end         string
	price       string
	free        bool
	imageURL    string
}

func newUploadCmd(a *app) *cobra.Command {
	var f uploadFlags

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Publish a new event",
		Example: `  campus-events upload --title "Jazz Night" --campus "Strathmore University" \
    --start 2026-10-20T19:00 --end 2026-10-20T22:00 --price 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			gate := &gatedPresenter{Presenter: a.console}
			page := services.NewPageSession(a.client, a.locator(), gate,
				services.WithPageConfig(a.pageConfig()),
				services.WithPageAnnouncer(a.announcer),
				services.WithPageCache(a.cache),
				services.WithPageMonitor(a.monitor),
				services.WithPageLogger(a.logger),
			)
			if err := page.Start(ctx); err != nil {
				return err
			}
			gate.open()

			draft := page.NewUploadDraft()
			draft.Form.Title = f.title
			draft.Form.Description = f.description
			draft.Form.OpenTo = f.openTo
			draft.Form.StartTime = f.start
			draft.Form.EndTime = f.end
			draft.Form.ImageURL = f.imageURL
			draft.SetPrice(f.price)
			draft.SetFree(f.free)

			if err := chooseCampus(ctx, page.Campus(draft), f.campus); err != nil {
				return err
			}

			_, err := page.Upload(ctx, draft)
			return err
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "event title")
	cmd.Flags().StringVar(&f.description, "description", "", "event description")
	cmd.Flags().StringVar(&f.campus, "campus", "", "campus name, or any other place for a custom location")
	cmd.Flags().StringVar(&f.openTo, "open-to", "", "audience, e.g. everyone or students")
	cmd.Flags().StringVar(&f.start, "start", "", "start time, YYYY-MM-DDTHH:MM")
	cmd.Flags().StringVar(&f.end, "end", "", "end time, YYYY-MM-DDTHH:MM")
	cmd.Flags().StringVar(&f.price, "price", "", "ticket price")
	cmd.Flags().BoolVar(&f.free, "free", false, "free entry")
	cmd.Flags().StringVar(&f.imageURL, "image", "", "image URL")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("campus")
	cmd.MarkFlagRequired("start")
	return cmd
}

// chooseCampus selects the campus whose name matches exactly, or a custom
// location when the search finds no campus. Partial matches are rejected
// with suggestions.
func chooseCampus(ctx context.Context, ac *services.CampusAutocomplete, campus string) error {
	options, err := ac.Lookup(ctx, campus)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return fmt.Errorf("campus is required")
	}

	var suggestions []string
	for _, opt := range options {
		if opt.Choice.Custom || strings.EqualFold(opt.Choice.Location, strings.TrimSpace(campus)) {
			ac.Select(opt)
			return nil
		}
		suggestions = append(suggestions, opt.Label)
	}
	if len(suggestions) == 1 {
		return fmt.Errorf("%q is not a campus name, did you mean %s?", campus, suggestions[0])
	}
	return fmt.Errorf("%q matches several campuses: %s", campus, strings.Join(suggestions, "; "))
}

func newCampusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "campus <query>",
		Short: "Search campuses for the upload form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := services.NewCampusAutocomplete(a.client,
				services.WithUniversityCache(a.cache),
				services.WithAutocompleteMonitor(a.monitor),
				services.WithAutocompleteLogger(a.logger),
			)
			options, err := ac.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, opt := range options {
				fmt.Fprintln(a.out, opt.Label)
			}
			return nil
		},
	}
}
