package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var version = "dev"

// CLI is the command tree of the secretary binary.
type CLI struct {
	Version    kong.VersionFlag `help:"Print the version and exit."`
	SQLitePath string           `name:"sqlite-path" help:"Override SECRETARY_SQLITE_PATH." type:"path"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API and the reminder schedule." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Apply pending database migrations."`
	Remind  RemindCmd  `cmd:"" help:"Draft reminders for every eligible task once."`
	User    struct {
		Add UserAddCmd `cmd:"" help:"Create an account or reset its password."`
	} `cmd:"" help:"Manage accounts."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("secretary"),
		kong.Description("Meeting and task assistant with a human review queue."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Writers(stdout, os.Stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&runtime{ctx: ctx, stdout: stdout, sqlitePath: cli.SQLitePath})
}
