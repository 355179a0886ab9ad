package commands

import (
	"context"

	"github.com/rs/zerolog/log"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	database.Close()
	log.Info().Msg("migrations completed")
	return nil
}
