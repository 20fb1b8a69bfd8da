// Command spongesim transfers random bytes between two TCP connections
// joined by a router over a lossy link and verifies they arrive intact.
//
// Usage:
//
//	spongesim -config sponge.yaml
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sponge-net/sponge/config"
)

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file. Defaults are used when empty.")
	flag.Parse()

	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	var (
		file config.File
		err  error
	)
	if *cfgPath != "" {
		file, err = config.Load(*cfgPath)
	} else {
		file, err = config.Parse(nil)
	}
	if err != nil {
		console.Fatal().Err(err).Msg("loading configuration")
	}
	level, err := file.Log.ParseLevel()
	if err != nil {
		console.Fatal().Err(err).Msg("parsing log level")
	}
	console = console.Level(zerologLevel(level))
	logger := slog.New(&zerologHandler{logger: console, level: level})

	sim, err := newSimulation(file, logger)
	if err != nil {
		console.Fatal().Err(err).Msg("setting up simulation")
	}
	start := time.Now()
	res, err := sim.run()
	if err != nil {
		console.Fatal().Err(err).Msg("simulation failed")
	}
	console.Info().
		Int("bytes", res.bytes).
		Uint64("simulatedMs", res.elapsedMs).
		Int("datagramsLost", res.lost).
		Int("datagramsCorrupted", res.corrupted).
		Int("datagramsRejected", res.rejected).
		Uint64("routerForwarded", res.forwarded).
		Uint64("routerDropped", res.dropped).
		Dur("wall", time.Since(start)).
		Msg("transfer verified")
}
