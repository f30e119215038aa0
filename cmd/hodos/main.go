// Command hodos is a terminal client for the comHodl backend. It keeps the
// signed-in session in a local SQLite file between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bdsalocin/comhodl-api/internal/apiclient"
	"github.com/bdsalocin/comhodl-api/internal/config"
	"github.com/bdsalocin/comhodl-api/internal/session"
)

const usage = `usage: hodos <command> [flags]

commands:
  login         -email -password
  register      -email -password
  logout
  status        session state and points
  questionnaire -prefs Resto,Culture -family Couple -children
  places        [-lat -lng]        places with distance
  nearby        -lat -lng [-radius] merchants nearby
  visit         -place N [-lat -lng]
  scan          -code CODE
  defis         open défis
  achievements
  leaderboard   [-n 10]
  watch         -path "lat,lng;lat,lng;..." [-every 1s]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	gate   *session.Gate
	client *apiclient.Client
	out    *printer
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	kv, err := session.OpenSQLKV(ctx, cfg.StatePath)
	if err != nil {
		return fmt.Errorf("opening local state: %w", err)
	}
	defer kv.Close()

	client, err := apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}
	gate := session.NewGate(kv, apiclient.Authenticator{Client: client})

	state, err := gate.Restore(ctx)
	if err != nil {
		return err
	}
	if u := gate.User(); u != nil {
		client.SetToken(u.Token)
	}
	logger.Debug("session restored", "state", state, "api", cfg.APIURL)

	a := &app{gate: gate, client: client, out: newPrinter(stdout), logger: logger}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	return cmd(ctx, a, fs, args[1:])
}
