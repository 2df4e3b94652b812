package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"campus-events/models"
	"campus-events/services"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	titleColor   = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

// console renders page state as text. It implements services.Presenter.
type console struct {
	mu       sync.Mutex
	out      io.Writer
	currency string
	now      func() time.Time
}

func newConsole(out io.Writer, currency string) *console {
	return &console{out: out, currency: currency, now: time.Now}
}

func (c *console) Notify(level services.Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch level {
	case services.LevelError:
		errorColor.Fprintln(c.out, message)
	case services.LevelSuccess:
		successColor.Fprintln(c.out, message)
	default:
		infoColor.Fprintln(c.out, message)
	}
}

func (c *console) SetMessage(message string) {
	if message == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dimColor.Fprintln(c.out, message)
}

func (c *console) RenderFeed(events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.section("Events", events)
}

func (c *console) RenderCustom(events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.section("Custom locations", events)
}

func (c *console) Events(heading string, events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.section(heading, events)
}

func (c *console) section(heading string, events []models.Event) {
	titleColor.Fprintf(c.out, "\n%s (%d)\n", heading, len(events))
	if len(events) == 0 {
		dimColor.Fprintln(c.out, "  nothing to show")
		return
	}
	for _, ev := range events {
		c.card(ev)
	}
}

func (c *console) card(ev models.Event) {
	title := ev.Title
	if title == "" {
		title = "Untitled event"
	}
	titleColor.Fprintf(c.out, "• %s", title)
	dimColor.Fprintf(c.out, "  [%s]\n", ev.ID)

	fmt.Fprintf(c.out, "  %s", ev.Place())
	if when := c.when(ev); when != "" {
		fmt.Fprintf(c.out, " · %s", when)
	}
	fmt.Fprintln(c.out)

	details := []string{c.price(ev)}
	if ev.IsCustomLocation && ev.ServiceFee.IsPositive() {
		details = append(details, fmt.Sprintf("+ %s service fee", money(c.currency, ev.ServiceFee)))
	}
	if ev.OpenTo != "" {
		details = append(details, "open to "+ev.OpenTo)
	}
	if ev.ShowsCount() {
		details = append(details, "Tickets reserved: "+humanize.Comma(int64(*ev.TicketsSold)))
	}
	fmt.Fprintf(c.out, "  %s", strings.Join(details, " · "))
	if ev.Reserved {
		successColor.Fprint(c.out, "  ✓ Reserved")
	}
	fmt.Fprintln(c.out)
}

func (c *console) when(ev models.Event) string {
	start, ok := ev.StartAt()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s (%s)", start.Format("Mon 2 Jan 15:04"), humanize.RelTime(start, c.now(), "ago", "from now"))
}

func (c *console) price(ev models.Event) string {
	if ev.IsFree || !ev.TicketPrice.IsPositive() {
		return "Free"
	}
	return money(c.currency, ev.TicketPrice)
}

func money(currency string, amount decimal.Decimal) string {
	return currency + " " + humanize.CommafWithDigits(amount.InexactFloat64(), 2)
}
