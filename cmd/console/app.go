package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
	"github.com/jrsteele09/star-console/authapi"
	"github.com/jrsteele09/star-console/internal/config"
	"github.com/jrsteele09/star-console/notify"
	"github.com/jrsteele09/star-console/sessions"
	"github.com/jrsteele09/star-console/token"
	"github.com/jrsteele09/star-console/token/filestore"
	"github.com/jrsteele09/star-console/token/redisstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app is the process wide wiring shared by every command.
type app struct {
	cfg       config.Config
	feed      *notify.Feed
	indicator *notify.Indicator
	client    *apiclient.Client
	session   *sessions.Controller
	closers   []io.Closer
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.New()
	setupLogging(cfg)

	persister, closer, err := newPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		feed:      notify.NewFeed(0),
		indicator: &notify.Indicator{},
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.client = apiclient.New(cfg.GetAPIBaseURL(),
		apiclient.WithNotifier(a.feed),
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
	)
	store := token.NewStore(persister, cfg.GetTokenKey())
	a.session = sessions.NewController(store, authapi.New(a.client), a.feed,
		sessions.WithRefreshMargin(cfg.GetRefreshMargin()),
		sessions.WithMinimumRefreshLead(cfg.GetMinimumRefreshLead()),
		sessions.WithRefreshTimeout(cfg.GetRefreshTimeout()),
	)
	a.client.SetupAuth(a.session)

	return a, nil
}

func (a *app) Close() {
	a.session.Close()
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
}

// printFeed writes the messages raised while a command ran.
func (a *app) printFeed() {
	for _, m := range a.feed.Drain() {
		if m.Level == notify.LevelError {
			fmt.Printf("\033[31m✗\033[0m %s\n", m.Text)
			continue
		}
		fmt.Printf("\033[32m✓\033[0m %s\n", m.Text)
	}
}

func newPersister(ctx context.Context, cfg config.StorageConfig) (token.Persister, io.Closer, error) {
	switch cfg.GetTokenStore() {
	case config.TokenStoreRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		store, err := redisstore.Dial(dialCtx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			return nil, nil, fmt.Errorf("redis token store: %w", err)
		}
		return store, store, nil
	case config.TokenStoreFile:
		store, err := filestore.New(cfg.GetDataFolder())
		if err != nil {
			return nil, nil, fmt.Errorf("file token store: %w", err)
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown token store %q", cfg.GetTokenStore())
}

func setupLogging(cfg config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}
