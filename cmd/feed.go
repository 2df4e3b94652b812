package cmd

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"campus-events/internal/status"
	"campus-events/models"
	"campus-events/services"

	"github.com/spf13/cobra"
)

func newFeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Show events near you and events at custom locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.page().Start(cmd.Context())
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Filter the nearby feed by title, description and location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := &gatedPresenter{Presenter: a.console}
			page := services.NewPageSession(a.client, a.locator(), gate,
				services.WithPageConfig(a.pageConfig()),
				services.WithPageMonitor(a.monitor),
				services.WithPageLogger(a.logger),
			)
			if err := page.Start(cmd.Context()); err != nil {
				return err
			}
			gate.open()
			page.SearchNow(strings.Join(args, " "))
			return nil
		},
	}
}

// gatedPresenter passes notifications through but holds back page output
// until opened.
type gatedPresenter struct {
	services.Presenter
	mu     sync.Mutex
	opened bool
}

func (g *gatedPresenter) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opened = true
}

func (g *gatedPresenter) isOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opened
}

func (g *gatedPresenter) SetMessage(message string) {
	if g.isOpen() {
		g.Presenter.SetMessage(message)
	}
}

func (g *gatedPresenter) RenderFeed(events []models.Event) {
	if g.isOpen() {
		g.Presenter.RenderFeed(events)
	}
}

func (g *gatedPresenter) RenderCustom(events []models.Event) {
	if g.isOpen() {
		g.Presenter.RenderCustom(events)
	}
}

func newReserveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <event-id>",
		Short: "Reserve a seat at an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identity, err := services.LoadSession(ctx, a.client)
			if err != nil {
				return err
			}

			ids, err := a.client.OptIns(ctx)
			if err != nil {
				a.logger.Warn("Failed to load opt-ins", "error", err)
			}
			optIns := services.NewOptInSet(ids...)
			w := services.NewReservationWorkflow(a.client, optIns, services.NewFeedState(), identity.Email, a.console, a.monitor, a.logger)

			err = w.Reserve(ctx, args[0])
			if errors.Is(err, status.ErrAlreadyReserved) {
				a.console.Notify(services.LevelInfo, fmt.Sprintf("You already reserved %s.", args[0]))
				return nil
			}
			return err
		},
	}
}
