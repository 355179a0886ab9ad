package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"diversityorgs/internal/models"
)

type GrantCmd struct {
	Email string `arg:"" help:"Email address of the user"`
	Role  string `arg:"" enum:"user,moderator,admin" help:"Role to give (user, moderator, admin)"`
}

func (g *GrantCmd) Run(ctx context.Context, globals *Globals) error {
	if !models.ValidRole(g.Role) {
		return fmt.Errorf("unknown role %q", g.Role)
	}

	cfg, err := setup(globals)
	if err != nil {
		return err
	}
	database, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	user, err := database.UpdateUserRole(ctx, g.Email, g.Role)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", g.Email, err)
	}
	log.Info().Str("user", user.Email).Str("role", user.Role).Msg("role updated")
	return nil
}
