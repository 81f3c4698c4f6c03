// Package bot wires menu acquisition, formatting, the Zulip client and
// the post history into the daily posting cycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"

	"github.com/plt-aachen/mensabot/internal/config"
	"github.com/plt-aachen/mensabot/internal/format"
	"github.com/plt-aachen/mensabot/internal/mensa"
	"github.com/plt-aachen/mensabot/internal/metrics"
	"github.com/plt-aachen/mensabot/internal/store"
	"github.com/plt-aachen/mensabot/internal/zulip"
)

var (
	// ErrNoMenu indicates the fetched week has no menu for the requested
	// date (holiday, closure, menu not published yet).
	ErrNoMenu = errors.New("no menu for requested date")

	// ErrAlreadyPosted indicates the menu for the requested date was
	// already posted, e.g. before a restart.
	ErrAlreadyPosted = errors.New("menu already posted")
)

// History is the subset of the post history the bot needs.
type History interface {
	AlreadyPosted(ctx context.Context, canteen, menuDate string) (bool, error)
	RecordPost(ctx context.Context, rec store.PostRecord) error
}

// Config assembles the bot's collaborators.
type Config struct {
	// Canteen is the canteen whose menu is posted.
	Canteen mensa.Canteen
	// Settings are the effective menu settings for the canteen.
	Settings config.CanteenOverride
	// Message is the [message] section of the configuration.
	Message config.MessageConfig
	// Location is the canteen's local time zone; "today" is derived in it.
	Location *time.Location

	Source  mensa.MenuSource
	Sender  zulip.MessageSender
	History History
	Metrics *metrics.Metrics
	Log     logr.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Bot performs the daily posting cycle.
type Bot struct {
	cfg Config
	log logr.Logger
	now func() time.Time
}

// New validates the configuration and creates a Bot.
func New(cfg Config) (*Bot, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("bot config: Source must be set")
	}
	if cfg.Sender == nil {
		return nil, fmt.Errorf("bot config: Sender must be set")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("bot config: History must be set")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Bot{cfg: cfg, log: cfg.Log.WithName("bot"), now: cfg.Now}, nil
}

// PostToday runs one cycle for the current date and classifies the
// outcome for the daemon loop: expected conditions are logged at info,
// real failures at error, and neither stops the daemon.
func (b *Bot) PostToday(ctx context.Context) {
	date := b.now().In(b.cfg.Location)
	err := b.PostMenu(ctx, date, false, nil)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyPosted):
		b.log.Info("Menu already posted, skipping slot", "date", mensa.DateKey(date))
	case errors.Is(err, ErrNoMenu):
		b.log.Info("No menu for today, skipping slot", "date", mensa.DateKey(date))
	default:
		b.log.Error(err, "Posting menu failed, waiting for next slot", "date", mensa.DateKey(date))
	}
}

// PostMenu runs one full cycle for the given date: dedup check, fetch,
// format, send, record. With dryRun the rendered messages are written to
// out instead of being sent (and nothing is recorded).
func (b *Bot) PostMenu(ctx context.Context, date time.Time, dryRun bool, out io.Writer) error {
	canteen := b.cfg.Canteen
	dateKey := mensa.DateKey(date)

	if !dryRun {
		posted, err := b.cfg.History.AlreadyPosted(ctx, string(canteen), dateKey)
		if err != nil {
			return fmt.Errorf("checking post history: %w", err)
		}
		if posted {
			return ErrAlreadyPosted
		}
	}

	b.log.Info("Fetching menu", "canteen", canteen, "date", dateKey, "source", b.cfg.Source.Name())
	start := b.now()
	week, err := b.cfg.Source.Fetch(ctx, canteen)
	b.cfg.Metrics.ObserveFetch(b.now().Sub(start), err)
	if err != nil {
		return err
	}

	menu := week.For(date)
	if menu == nil {
		return fmt.Errorf("%w: %s", ErrNoMenu, dateKey)
	}

	content := format.Menu(menu, canteen, b.cfg.Settings)
	topic := format.Topic(b.cfg.Message.TopicPrefix, menu)

	if dryRun {
		fmt.Fprintf(out, "Topic: %s\n\n%s\n", topic, content)
		if b.cfg.Message.Poll {
			fmt.Fprintf(out, "\n%s\n", format.PollMessage)
		}
		return nil
	}

	menuID, err := b.send(ctx, zulip.Message{Stream: b.cfg.Message.Stream, Topic: topic, Content: content})
	if err != nil {
		return err
	}

	var pollID int64
	var pollErr error
	if b.cfg.Message.Poll {
		pollID, pollErr = b.send(ctx, zulip.Message{Stream: b.cfg.Message.Stream, Topic: topic, Content: format.PollMessage})
	}

	// The menu went out either way: record the slot so a restart does not
	// post it twice, then surface a poll failure.
	rec := store.PostRecord{
		Canteen:       string(canteen),
		MenuDate:      dateKey,
		Stream:        b.cfg.Message.Stream,
		Topic:         topic,
		MenuMessageID: menuID,
		PollMessageID: pollID,
		SentAt:        b.now(),
	}
	if err := b.cfg.History.RecordPost(ctx, rec); err != nil {
		return err
	}
	b.cfg.Metrics.ObservePost(rec.SentAt)

	if pollErr != nil {
		return fmt.Errorf("menu posted, but sending poll message failed: %w", pollErr)
	}
	b.log.Info("Menu posted", "canteen", canteen, "date", dateKey, "topic", topic)
	return nil
}

// send sends one message and records the outcome in the metrics.
func (b *Bot) send(ctx context.Context, msg zulip.Message) (int64, error) {
	id, err := b.cfg.Sender.SendMessage(ctx, msg)
	b.cfg.Metrics.ObserveSend(err)
	return id, err
}
