package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/cli"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/gql"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/ui"
)

func main() {
	cfg := config.Load().Client

	// Root flags (apply to every subcommand); they override the environment.
	groupPending := flag.Bool("group", false, "group ls output by pending/done")
	endpoint := flag.String("endpoint", cfg.Endpoint, "GraphQL endpoint URL")
	theme := flag.String("theme", cfg.Theme, "color theme: classic, neon, mono")
	timeout := flag.Duration("timeout", cfg.Timeout, "per-request timeout")
	debug := flag.Bool("debug", cfg.Debug, "write debug logs")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	closer, err := logging.Setup(cfg.LogFile, *debug)
	if err != nil {
		ui.Fail(err.Error())
		os.Exit(1)
	}
	ui.SetTheme(*theme)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	tokens := &auth.Store{}
	client := gql.NewClient(*endpoint,
		gql.WithTimeout(*timeout),
		gql.WithTokenSource(tokens),
	)
	log.WithFields(log.Fields{"endpoint": *endpoint, "cmd": args[0]}).Debug("start")

	start := time.Now()
	code := cli.Run(ctx, args, cli.Options{
		Group:    *groupPending,
		Endpoint: *endpoint,
		Service:  client,
		Tokens:   tokens,
	})
	log.WithFields(log.Fields{"code": code, "took": time.Since(start)}).Debug("done")

	stop()
	_ = closer.Close()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
