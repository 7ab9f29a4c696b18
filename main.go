package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"ticker-board/client"
	configure "ticker-board/config"
	"ticker-board/data"
	"ticker-board/display"
	"ticker-board/logger"
	"ticker-board/service"
	"time"

	"github.com/fatih/color"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// before any blocking startup work
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags, err := configure.ParseFlags(client.Name, args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	config, configErr := flags.Load()
	if configErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", client.Name, configErr)
		return 1
	}

	surface, surfaceErr := display.NewSurface(os.Stdout)
	if surfaceErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", client.Name, surfaceErr)
		return 1
	}

	log, closeLog, logErr := logger.SetupLogger(config.Log, surface.LogWriter())
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", client.Name, logErr)
		return 1
	}
	defer closeLog()
	log = log.With("app", client.Name, "version", client.Version)

	resolveCtx, resolveCancel := context.WithTimeout(ctx, config.Stream.HandshakeTimeout)
	resolveErr := client.ResolveEndpoint(resolveCtx, config.Binance.WebsocketUrl)
	resolveCancel()
	if ctx.Err() != nil {
		log.Info("Interrupted during startup")
		return 0
	}
	if resolveErr != nil {
		log.Error("Websocket endpoint is unreachable", "url", config.Binance.WebsocketUrl, "error", resolveErr)
		fmt.Fprintf(os.Stderr, "%s: %v\n", client.Name, resolveErr)
		return 1
	}

	store := data.NewInMemoryPriceStore(config.Binance.Symbols, log)

	statsClient := client.NewBinanceStatsClient(config)
	streamFactory := client.NewTickerStreamFactory(config, log)
	feed := service.NewBinanceTickerFeed(config, statsClient, streamFactory, store, log)

	palette := display.NewPalette(surface.Interactive() && !color.NoColor)
	loop := display.NewLoop(store, surface, palette, config.Display, log)

	displayDone := make(chan struct{})
	go func() {
		defer close(displayDone)
		if err := loop.Run(ctx); err != nil {
			log.Error("Display loop failed", "error", err)
		}
	}()

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)

		seedCtx, seedCancel := context.WithTimeout(ctx, client.Timeout)
		if err := feed.Seed(seedCtx); err != nil {
			log.Warn("Starting without seeded prices", "error", err)
		}
		seedCancel()
		if ctx.Err() != nil {
			return
		}

		if err := feed.Listen(ctx); err != nil {
			log.Error("Ticker feed failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Received shutdown signal")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	wg := sync.WaitGroup{}

	// Wait for streams to finish
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-streamDone:
			log.Info("Ticker streams stopped")
		case <-shutdownCtx.Done():
			log.Warn("Ticker streams shutdown timeout")
		}
	}()

	// Wait for the board to draw its last frame
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-displayDone:
			log.Info("Display stopped")
		case <-shutdownCtx.Done():
			log.Warn("Display shutdown timeout")
		}
	}()

	wg.Wait()

	log.Info("Graceful shutdown completed")
	return 0
}
