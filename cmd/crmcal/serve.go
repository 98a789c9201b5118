package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crmcal/internal/export"
	appLog "crmcal/internal/log"
	"crmcal/internal/web"
)

var listenOverride string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the calendar HTTP API and scheduled exports",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenOverride, "listen", "", "HTTP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if listenOverride != "" {
		conf.Listen = listenOverride
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.Info("crmcal starting", "version", version, "pid", os.Getpid())
	engine := newEngine(ctx, conf, time.Now())
	srv := web.NewServer(conf, engine)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if conf.Export.Cron != "" {
		sched, err := export.NewScheduler(conf.Export.Cron, conf.Export.Dir, conf.Export.Filename, func() []export.Record {
			return export.EventRecords(engine.Events())
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sched.Run(ctx)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	appLog.Info("crmcal exiting")
	return nil
}
