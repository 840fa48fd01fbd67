package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"user-server/confs"
	"user-server/db"
	"user-server/server"

	"github.com/sirupsen/logrus"
)

func newLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func main() {
	// load config
	cfg, err := confs.Load("config.yml")
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	log := newLogger(cfg.App.Debug)
	log.WithFields(logrus.Fields{"name": cfg.App.Name, "version": cfg.App.Version}).Info("starting")

	// connect to the database unless running in memory
	var database db.Database
	if cfg.Database.Driver != confs.DriverMemory {
		database, err = db.Connect(&cfg.Database, log)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run server
	if err := server.NewServer(cfg, database, log).Start(ctx); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
