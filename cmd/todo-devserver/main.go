package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/devserver"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

func main() {
	cfg := config.Load().DevServer

	addr := flag.String("addr", cfg.Addr, "listen address")
	data := flag.String("data", cfg.DataFile, "JSON file holding the todos")
	flag.Parse()

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	store, err := jsonstore.New(*data)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	app, err := devserver.New(store)
	if err != nil {
		log.Fatalf("devserver: %v", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(log.Fields{"addr": *addr, "data": store.Path()}).Info("todo dev endpoint listening on /graphql")
	if err := app.Listen(*addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
