package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"llm-arcade/server/agent"
	"llm-arcade/server/llm"
	"llm-arcade/server/match"
	"llm-arcade/server/stats"
	"llm-arcade/server/store"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// newPolicyFactory maps seat identifiers onto decision policies. The reserved
// trained-model names resolve to the RL policies; anything else is taken as
// an LLM model name served by the configured runtime.
func newPolicyFactory(baseCfg llm.Config, mcPath, dqPath string) match.PolicyFactory {
	return func(game match.Game, policyID string) (agent.DecisionPolicy, error) {
		switch policyID {
		case "monte_carlo":
			if game != match.GameBlackjack {
				return nil, fmt.Errorf("policy %q only plays blackjack", policyID)
			}
			return agent.LoadTabularPolicy(mcPath), nil
		case "deep_q":
			if game != match.GameBlackjack {
				return nil, fmt.Errorf("policy %q only plays blackjack", policyID)
			}
			return agent.LoadNetworkPolicy(dqPath), nil
		}

		cfg := baseCfg
		if policyID != "llm" {
			cfg.Model = policyID
		}
		var fallbacks []string
		if game == match.GameBlackjack {
			fallbacks = []string{"HIT", "STAND"}
		}
		return agent.NewLLMPolicy(llm.NewClient(cfg), fallbacks), nil
	}
}

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if asBool(os.Getenv("DEBUG")) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	addr := getenv("ADDR", ":"+getenv("PORT", "8080"))
	statsPath := getenv("STATS_FILE", "game_stats.json")
	mcPath := getenv("MONTE_CARLO_MODEL", "monte_carlo_model.json")
	dqPath := getenv("DEEP_Q_MODEL", "deep_q_model.json")

	llmCfg := llm.ConfigFromEnv()
	client := llm.NewClient(llmCfg)

	var db *store.DB
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		p, err := store.Open(dsn)
		if err != nil {
			log.Warn().Err(err).Msg("DB disabled (open failed)")
		} else {
			db = p
			defer db.Close()
			if asBool(os.Getenv("AUTO_MIGRATE")) {
				if err := store.Migrate(context.Background(), db); err != nil {
					log.Warn().Err(err).Msg("migrate failed (continuing without DB)")
					db = nil
				}
			}
		}
	}

	mgr := match.NewManager(newPolicyFactory(llmCfg, mcPath, dqPath), stats.New(statsPath), db)

	srv := &http.Server{
		Addr:         addr,
		Handler:      Router(mgr, client),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // one decision can wait on a slow model
	}

	go func() {
		log.Info().Str("addr", addr).Str("model", llmCfg.Model).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
