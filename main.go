package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"

	"fire-scenes/catalog"
	"fire-scenes/config"
	"fire-scenes/event"
	"fire-scenes/geo"
)

func topLevelContext() context.Context {
	ctx, cancelf := context.WithCancel(context.Background())
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigs
		log.Warnf("Caught signal %q, shutting down.", sig)
		cancelf()
	}()
	return ctx
}

func main() {
	cmd := &cli.Command{
		Name:  "fire-scenes",
		Usage: "Search for and download satellite images for a wildfire event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "fire event ID, from the id field of the events shapefile",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "s",
				Aliases:  []string{"satellite"},
				Usage:    "imagery source, one of: sentinel, landsat",
				Required: true,
			},
		},
		Action: run,
	}

	if err := cmd.Run(topLevelContext(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	eventID := cmd.String("id")
	satellite := cmd.String("s")

	var client catalog.Client
	var bufferDays int
	switch satellite {
	case "sentinel":
		client = catalog.NewSentinel(cfg.Sentinel)
		bufferDays = cfg.Sentinel.BufferDays
	case "landsat":
		client = catalog.NewLandsat(cfg.Landsat)
		bufferDays = cfg.Landsat.BufferDays
	default:
		return fmt.Errorf("unknown satellite %q, accepted values are sentinel and landsat", satellite)
	}

	shapefile := filepath.Join(cfg.DataDir, "Fire_events", "selected_events.shp")
	ev, err := event.Load(shapefile, eventID)
	if err != nil {
		return err
	}

	window := ev.Window(bufferDays)
	log.Infof("Event %s runs %s to %s, searching %s to %s",
		ev.ID,
		ev.Start.Format("2006-01-02"), ev.End.Format("2006-01-02"),
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	log.Infof("Downloading scenes: %v, saving footprints: %v", cfg.DownloadScenes, cfg.SaveFootprints)

	f := &catalog.Fetcher{
		Client:  client,
		Config:  cfg,
		Retrier: catalog.NewRetrier(cfg.Retry.MaxAttempts, cfg.Retry.Wait),
	}
	return f.SearchAndFetch(ctx, ev, catalog.Query{
		Footprint:     geo.FromGeometry(ev.Geometry),
		Window:        window,
		MaxCloudCover: cfg.MaxCloudCover,
	})
}
