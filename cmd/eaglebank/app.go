package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eaglebank/client/internal/client"
	"github.com/eaglebank/client/internal/config"
	"github.com/eaglebank/client/internal/credential"
	"github.com/eaglebank/client/internal/logging"
	"github.com/eaglebank/client/internal/navigator"
	"github.com/eaglebank/client/internal/session"
	"github.com/eaglebank/client/internal/view"
	sharedredis "github.com/eaglebank/client/shared/redis"
)

// options are the persistent flags; empty values leave the config untouched.
type options struct {
	configFile  string
	apiURL      string
	store       string
	sessionFile string
	timeout     string
	verbose     bool
}

// app is one CLI invocation: a single session, navigator and client shared by
// every view the command runs.
type app struct {
	opts options
	in   io.Reader

	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	sess     *session.Context
	nav      *navigator.Navigator
	bank     *client.Client
	policy   view.DeletionPolicy

	closers []func() error
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.opts.configFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.opts.verbose {
		level = "debug"
	}
	a.log, err = logging.New(logging.Options{Level: level, Development: cfg.Logging.Development})
	if err != nil {
		return err
	}

	if a.policy, err = view.ParseDeletionPolicy(cfg.DeleteUserPolicy); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.sess = session.New(ctx, store, session.WithLogger(a.log))
	a.nav = navigator.New(a.sess, navigator.WithLogger(a.log))

	timeout, _ := cfg.Timeout()
	opts := []client.Option{
		client.WithTimeout(timeout),
		client.WithLogger(a.log),
	}
	if cfg.API.BasePath != "" {
		opts = append(opts, client.WithBasePath(cfg.API.BasePath))
	}
	a.registry = prometheus.NewRegistry()
	opts = append(opts, client.WithMetrics(a.registry))

	a.bank, err = client.New(cfg.API.URL, a.sess, opts...)
	return err
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.opts.apiURL != "" {
		cfg.API.URL = a.opts.apiURL
	}
	if a.opts.store != "" {
		cfg.Session.Store = a.opts.store
	}
	if a.opts.sessionFile != "" {
		cfg.Session.File = a.opts.sessionFile
	}
	if a.opts.timeout != "" {
		cfg.API.Timeout = a.opts.timeout
	}
}

func (a *app) openStore(ctx context.Context) (credential.Store, error) {
	switch a.cfg.Session.Store {
	case config.StoreMemory:
		return credential.NewMemoryStore(""), nil
	case config.StoreRedis:
		rdb, err := sharedredis.NewClient(ctx, sharedredis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		ttl, _ := a.cfg.RedisTTL()
		return credential.NewRedisStore(rdb.Client, a.cfg.Redis.Prefix, ttl), nil
	default:
		path := a.cfg.Session.File
		if path == "" {
			var err error
			if path, err = credential.DefaultFilePath(); err != nil {
				return nil, fmt.Errorf("failed to locate session file: %w", err)
			}
		}
		return credential.NewFileStore(path), nil
	}
}

func (a *app) deps() view.Deps {
	return view.Deps{Bank: a.bank, Session: a.sess, Nav: a.nav, Log: a.log}
}

// userID picks the --user flag, else the id carried by the stored token.
func (a *app) userID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if !a.sess.Authenticated() {
		return "", &redirectError{Path: navigator.LoginPage().Path()}
	}
	if claims, ok := a.sess.Claims(); ok && claims.UserID != "" {
		return claims.UserID, nil
	}
	return "", fmt.Errorf("the stored credential names no user; pass --user")
}

// logMetrics reports the request counters at debug level.
func (a *app) logMetrics() {
	if a.registry == nil || a.log == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Debug("client.metrics gather failed", zap.Error(err))
		return
	}
	for _, mf := range families {
		if mf.GetName() != "eaglebank_client_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.Float64("count", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			a.log.Debug("client.metrics", fields...)
		}
	}
}

func (a *app) close() {
	a.logMetrics()
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
	if a.log != nil {
		_ = a.log.Sync()
	}
}
