// ABOUTME: Entry point for quickreply, a terminal relay for chatting through a Telegram bot
// ABOUTME: Loads config, connects the bot, then runs the relay and the console side by side

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/2389/quickreply/internal/config"
	"github.com/2389/quickreply/internal/notify"
	"github.com/2389/quickreply/internal/poller"
	"github.com/2389/quickreply/internal/relay"
	"github.com/2389/quickreply/internal/sender"
	"github.com/2389/quickreply/internal/telegram"
)

const banner = `
    ╭──────────────────────────────────╮
    │                                  │
    │   ┏━┓╻ ╻╻┏━╸╻┏ ┏━┓┏━╸┏━┓╻  ╻ ╻   │
    │   ┃┏┛┃ ┃┃┃  ┣┻┓┣┳┛┣╸ ┣━┛┃  ┗┳┛   │
    │   ┗┻╸┗━┛╹┗━╸╹ ╹╹┗╸┗━╸╹  ┗━╸ ╹    │
    │                                  │
    │      telegram desktop relay      │
    │                                  │
    ╰──────────────────────────────────╯
`

func main() {
	// Check for init command
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(os.Stdin, config.DefaultPath()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	configPath := flag.String("config", config.DefaultPath(), "Path to config file (TOML or YAML)")
	logLevel := flag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	flag.Parse()

	if err := run(*configPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no config at %s (run `quickreply init`): %w", configPath, err)
		}
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	telegram.RouteLibraryLogs(logger)

	// Setup graceful shutdown context first - all operations should respect it
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := telegram.Connect(ctx, telegram.Options{
		Token:          cfg.Telegram.Token,
		Endpoint:       cfg.Telegram.APIEndpoint,
		ConnectTimeout: cfg.Telegram.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	signature := cfg.Sender.Signature
	if signature == "" {
		signature = sender.DefaultSignature()
	}
	if cfg.Sender.DisableSignature {
		signature = ""
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Bot:        @%s\n", client.BotName())
	if signature != "" {
		green.Print("    ▶ ")
		fmt.Printf("Signature:  %q\n", signature)
	}
	fmt.Println()

	r := relay.New(client, relay.Options{
		Poller: poller.Options{
			WaitTimeout:    cfg.Poller.WaitTimeout,
			Interval:       cfg.Poller.Interval,
			RequestTimeout: cfg.Telegram.RequestTimeout,
			ErrorWindow:    cfg.Poller.ErrorWindow,
			Notifier:       buildNotifier(cfg.Notify),
		},
		Sender: sender.Options{
			Signature: signature,
			Timeout:   cfg.Sender.Timeout,
		},
		LocalAuthor: cfg.Console.LocalAuthor,
		Logger:      logger,
	})

	console := newConsole(os.Stdin, os.Stdout, r)
	r.SetRenderer(console)
	r.OnInbound(console.inbound)

	g, gctx := errgroup.WithContext(ctx)
	if err := r.Start(gctx); err != nil {
		return err
	}
	logger.Info("relay started", "bot", client.BotName())

	g.Go(func() error {
		return r.Wait()
	})
	g.Go(func() error {
		defer r.Stop()
		return console.Run(gctx)
	})

	err = g.Wait()
	fmt.Println("\nGoodbye!")
	return err
}

// buildNotifier turns the notify section into a notifier, or nil when
// nothing is configured.
func buildNotifier(cfg config.NotifyConfig) notify.Notifier {
	var n notify.Multi
	if cfg.Bell {
		n = append(n, notify.Bell{W: os.Stdout})
	}
	if len(cfg.Command) > 0 {
		n = append(n, notify.Command{Argv: cfg.Command})
	}
	if len(n) == 0 {
		return nil
	}
	return n
}

// setupLogger writes to stderr so log lines do not interleave with the console.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
