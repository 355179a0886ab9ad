package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"diversityorgs/internal/authz"
	"diversityorgs/internal/email"
	"diversityorgs/internal/events"
	"diversityorgs/internal/jobs"
	"diversityorgs/internal/metrics"
	"diversityorgs/internal/moderation"
	"diversityorgs/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address, overrides SERVER_ADDR" default:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.ServerAddr = s.Addr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info().Msg("migrations completed")

	authorizer, err := authz.New(cfg.AuthzPolicyFile)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nats, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = nats
		log.Info().Msg("publishing moderation events to nats")
	}
	defer publisher.Close()

	notifier := email.NewNotifier(cfg, database)
	svc := moderation.NewService(database, authorizer, notifier, publisher)
	metrics.Init(database)

	if cfg.WebsiteCheckInterval > 0 {
		go jobs.NewWebsiteChecker(database, cfg.WebsiteCheckInterval, cfg.WebsiteCheckMaxAge).Start(ctx)
	}

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, server.Deps{DB: database, Authz: authorizer, Moderation: svc}); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	if err := srv.Shutdown(); err != nil {
		return err
	}
	log.Info().Msg("server exited")
	return nil
}
