// mensabot posts the daily Studierendenwerk Aachen canteen menu to a
// Zulip stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v2"

	botpkg "github.com/plt-aachen/mensabot/internal/bot"
	"github.com/plt-aachen/mensabot/internal/config"
	"github.com/plt-aachen/mensabot/internal/logging"
	"github.com/plt-aachen/mensabot/internal/mensa"
	"github.com/plt-aachen/mensabot/internal/metrics"
	"github.com/plt-aachen/mensabot/internal/scheduler"
	"github.com/plt-aachen/mensabot/internal/store"
	"github.com/plt-aachen/mensabot/internal/zulip"
)

func main() {
	app := &cli.App{
		Name:  "mensabot",
		Usage: "posts the daily Mensa Aachen menu to a Zulip stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.ini",
				Usage:   "path to the configuration file",
				EnvVars: []string{"MENSABOT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Value:   "mensabot.db",
				Usage:   "path to the post history database",
				EnvVars: []string{"MENSABOT_DB"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "listen address for the Prometheus endpoint (empty disables)",
				EnvVars: []string{"MENSABOT_METRICS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (info, debug, trace)",
				EnvVars: []string{"MENSABOT_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "log-dev",
				Usage: "use the human-readable development log format",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the daemon, posting every workday at the configured time",
				Action: runDaemon,
			},
			{
				Name:  "post",
				Usage: "post (or render) one menu immediately and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "render the messages to stdout instead of sending",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "menu date as YYYY-MM-DD (default: today)",
					},
				},
				Action: runPost,
			},
			{
				Name:  "history",
				Usage: "list recently posted menus",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 10,
						Usage: "maximum number of posts to list",
					},
				},
				Action: runHistory,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// deps is everything a command needs, built once from the CLI flags.
type deps struct {
	cfg      *config.Config
	canteen  mensa.Canteen
	settings config.CanteenOverride
	location *time.Location
	bot      *botpkg.Bot
	history  *store.Store
	metrics  *metrics.Metrics
	log      logr.Logger
}

func setup(c *cli.Context) (*deps, error) {
	log, err := logging.Setup(c.String("log-level"), c.Bool("log-dev"))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	overrides, err := config.LoadOverridesFile(cfg.Menu.OverridesFile)
	if err != nil {
		return nil, err
	}

	canteen, err := mensa.ParseCanteen(cfg.Menu.Canteen)
	if err != nil {
		return nil, err
	}
	location, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}

	history, err := store.Open(c.String("db"))
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if c.String("metrics-addr") != "" {
		m = metrics.New()
	}

	settings := overrides.ForCanteen(string(canteen))
	bot, err := botpkg.New(botpkg.Config{
		Canteen:  canteen,
		Settings: settings,
		Message:  cfg.Message,
		Location: location,
		Source:   mensa.NewHTTPSource(location, log),
		Sender:   zulip.NewClient(cfg.API.Site, cfg.API.Email, cfg.API.Key, log),
		History:  history,
		Metrics:  m,
		Log:      log,
	})
	if err != nil {
		_ = history.Close()
		return nil, err
	}

	return &deps{
		cfg:      cfg,
		canteen:  canteen,
		settings: settings,
		location: location,
		bot:      bot,
		history:  history,
		metrics:  m,
		log:      log,
	}, nil
}

func runDaemon(c *cli.Context) error {
	d, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = d.history.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hour, minute, err := d.cfg.Schedule.PostTime()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(hour, minute, d.location, d.log)
	if err != nil {
		return err
	}

	if addr := c.String("metrics-addr"); addr != "" {
		go func() {
			if err := d.metrics.Serve(ctx, addr, d.log); err != nil {
				d.log.Error(err, "Metrics endpoint failed")
			}
		}()
	}

	d.log.Info("Starting mensabot",
		"canteen", d.canteen,
		"stream", d.cfg.Message.Stream,
		"postTime", d.cfg.Schedule.Time,
		"timezone", d.cfg.Schedule.Timezone)

	sched.Run(ctx, d.bot.PostToday)
	d.log.Info("Shutting down")
	return nil
}

func runPost(c *cli.Context) error {
	d, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = d.history.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	date := time.Now().In(d.location)
	if arg := c.String("date"); arg != "" {
		parsed, err := time.ParseInLocation("2006-01-02", arg, d.location)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", arg, err)
		}
		date = parsed
	}

	return d.bot.PostMenu(ctx, date, c.Bool("dry-run"), os.Stdout)
}

// runHistory only needs the database, so it skips the full setup and
// works without Zulip credentials.
func runHistory(c *cli.Context) error {
	if _, err := logging.Setup(c.String("log-level"), c.Bool("log-dev")); err != nil {
		return err
	}

	history, err := store.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	recs, err := history.RecentPosts(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No posts recorded yet.")
		return nil
	}
	for _, rec := range recs {
		fmt.Println(formatPostRecord(rec))
	}
	return nil
}

// formatPostRecord renders one history line for the history command.
func formatPostRecord(rec store.PostRecord) string {
	return fmt.Sprintf("%s  %-14s  %s > %s (message %d)",
		rec.SentAt.Format("2006-01-02 15:04"), rec.Canteen, rec.Stream, rec.Topic, rec.MenuMessageID)
}
