package main

import (
	"context"

	"github.com/alecthomas/kong"

	"diversityorgs/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Serve           commands.ServeCmd           `cmd:"" default:"1" help:"Run the web server"`
		Migrate         commands.MigrateCmd         `cmd:"" help:"Apply database migrations"`
		Seed            commands.SeedCmd            `cmd:"" help:"Load focuses, parent organizations, coordinates and featured organizations from a taxonomy file"`
		Grant           commands.GrantCmd           `cmd:"" help:"Set the role of a user"`
		Feature         commands.FeatureCmd         `cmd:"" help:"Show an organization on the home page"`
		Locate          commands.LocateCmd          `cmd:"" help:"Pin a location to map coordinates"`
		ParentOrganizer commands.ParentOrganizerCmd `cmd:"" help:"Let a user edit every chapter of a parent organization"`
		Debug           bool                        `help:"Enable debug logging."`
		Version         kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("diversityorgs"),
		kong.Description("Directory of diversity-in-tech organizations."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
