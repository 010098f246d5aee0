// Package execution bridges "run this code" requests to remote execution
// services. Backends are interchangeable adapters tried in order; the
// first well-formed result wins. Fallback is across adapters, never
// retries within one.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tharunkunamalla/realtime-editor/config"
)

// ErrExhausted means every configured backend failed. It is the only
// execution error surfaced to end users, via UserMessage.
var ErrExhausted = errors.New("all execution backends failed")

// UserMessage is the generic user-presentable failure text; diagnostic
// detail stays in the logs.
const UserMessage = "Code execution is temporarily unavailable. Please try again later."

type Request struct {
	Language string
	Source   string
}

type Result struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Adapter is one remote execution backend behind a uniform interface.
type Adapter interface {
	Name() string
	Execute(ctx context.Context, req Request) (*Result, error)
}

// Gateway holds the ordered fallback chain. Stateless: no room coupling.
type Gateway struct {
	adapters []Adapter
}

func NewGateway(adapters ...Adapter) *Gateway {
	return &Gateway{adapters: adapters}
}

// FromConfig builds the adapter chain in configured order.
func FromConfig(cfg config.Execution) (*Gateway, error) {
	adapters := make([]Adapter, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		timeout := 5 * time.Second
		if d, err := time.ParseDuration(b.Timeout); err == nil && d > 0 {
			timeout = d
		}
		switch b.Kind {
		case "piston":
			adapters = append(adapters, NewPistonAdapter(b.Name, b.URL, b.Version, timeout))
		case "glot":
			adapters = append(adapters, NewGlotAdapter(b.Name, b.URL, b.Token, timeout))
		default:
			return nil, fmt.Errorf("unknown execution backend kind %q", b.Kind)
		}
	}
	return NewGateway(adapters...), nil
}

// Execute tries each adapter in order and returns the first well-formed
// result. Individual backend failures are logged, never surfaced; only
// exhausting the whole chain is an error for the caller.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Result, error) {
	for _, a := range g.adapters {
		res, err := a.Execute(ctx, req)
		if err != nil {
			slog.Warn("execution backend failed, falling back",
				"backend", a.Name(), "language", req.Language, "err", err)
			continue
		}
		return res, nil
	}
	return nil, ErrExhausted
}
