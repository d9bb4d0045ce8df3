package agent

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"llm-arcade/server/engine"
	"llm-arcade/server/llm"
)

// connect4Fallbacks are the default fallback decisions; the policy itself is
// board-agnostic, so blackjack seats pass their own set.
var connect4Fallbacks = []string{"0", "1", "2", "3", "4", "5", "6"}

// LLMPolicy drives a seat through a conversational text-generation endpoint.
// Each prompt is appended to a running transcript so the model sees the whole
// game so far. On transport failure or timeout it degrades to a uniformly
// random fallback decision so the match always progresses.
type LLMPolicy struct {
	client    *llm.Client
	fallbacks []string
	history   []llm.Message
}

// NewLLMPolicy builds a policy over the given client. fallbacks lists the
// decision texts to choose from when the endpoint fails; nil means the
// Connect 4 digit set.
func NewLLMPolicy(client *llm.Client, fallbacks []string) *LLMPolicy {
	if len(fallbacks) == 0 {
		fallbacks = connect4Fallbacks
	}
	return &LLMPolicy{client: client, fallbacks: fallbacks}
}

func (p *LLMPolicy) Name() string { return p.client.Model() }

func (p *LLMPolicy) Decide(ctx context.Context, prompt string) DecisionResult {
	start := time.Now()
	p.history = append(p.history, llm.Message{Role: "user", Content: prompt})

	reply, err := p.client.Chat(ctx, p.history)
	latency := time.Since(start)
	if err != nil {
		status := StatusError
		if llm.IsTimeout(err) {
			status = StatusTimeout
		}
		fallback := p.fallbacks[rand.IntN(len(p.fallbacks))]
		log.Warn().Err(err).Str("model", p.client.Model()).Str("fallback", fallback).
			Msg("decision source failed, using random fallback")
		return DecisionResult{
			Text:         fallback,
			Latency:      latency,
			Model:        p.client.Model(),
			Status:       status,
			FallbackUsed: true,
			ErrText:      err.Error(),
		}
	}

	p.history = append(p.history, llm.Message{Role: "assistant", Content: reply})
	thinking, clean := engine.StripThinking(reply)
	return DecisionResult{
		Text:     clean,
		Thinking: thinking,
		Latency:  latency,
		Model:    p.client.Model(),
		Status:   StatusSuccess,
	}
}

func (p *LLMPolicy) ResetContext() { p.history = nil }

func (p *LLMPolicy) UpdateWithResult(won bool) {}
