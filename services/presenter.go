package services

import "campus-events/models"

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows transient notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Presenter renders page state. Implementations must be safe for
// concurrent use; the page loads its sections in parallel.
type Presenter interface {
	Notifier
	SetMessage(message string)
	RenderFeed(events []models.Event)
	RenderCustom(events []models.Event)
}

type nopPresenter struct{}

func (nopPresenter) Notify(Level, string) {}
func (nopPresenter) SetMessage(string) {}
func (nopPresenter) RenderFeed([]models.Event) {}
func (nopPresenter) RenderCustom([]models.Event) {}

// NopPresenter discards everything.
var NopPresenter Presenter = nopPresenter{}
