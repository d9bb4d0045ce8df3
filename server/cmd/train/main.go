// Command train fits the blackjack policies offline and writes the model
// files the server loads at startup.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"llm-arcade/server/rl"
)

func main() {
	var (
		mcEpisodes = flag.Int("mc-episodes", 50000, "Monte Carlo training episodes (0 skips)")
		mcEpsilon  = flag.Float64("mc-epsilon", 0.1, "Monte Carlo exploration rate")
		mcOut      = flag.String("mc-out", "monte_carlo_model.json", "Monte Carlo model output path")
		dqEpisodes = flag.Int("dq-episodes", 5000, "deep Q training episodes (0 skips)")
		dqBatch    = flag.Int("dq-batch", 64, "deep Q minibatch size")
		dqOut      = flag.String("dq-out", "deep_q_model.json", "deep Q model output path")
		seed       = flag.Uint64("seed", 0, "RNG seed (0 uses the clock)")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *mcEpisodes > 0 {
		start := time.Now()
		model := rl.TrainMonteCarlo(
			rl.WithMCEpisodes(*mcEpisodes),
			rl.WithMCEpsilon(*mcEpsilon),
			rl.WithMCSeed(*seed),
		)
		if err := model.Save(*mcOut); err != nil {
			log.Fatal().Err(err).Str("path", *mcOut).Msg("saving Monte Carlo model failed")
		}
		log.Info().
			Str("path", *mcOut).
			Int("states", len(model.Policy)).
			Dur("elapsed", time.Since(start)).
			Msg("Monte Carlo model trained")
	}

	if *dqEpisodes > 0 {
		start := time.Now()
		net := rl.TrainDeepQ(
			rl.WithDQEpisodes(*dqEpisodes),
			rl.WithDQBatchSize(*dqBatch),
			rl.WithDQSeed(*seed),
		)
		if err := rl.SaveNetwork(net, *dqOut); err != nil {
			log.Fatal().Err(err).Str("path", *dqOut).Msg("saving deep Q model failed")
		}
		log.Info().
			Str("path", *dqOut).
			Dur("elapsed", time.Since(start)).
			Msg("deep Q model trained")
	}
}
