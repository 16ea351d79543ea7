// Package jsengine evaluates small JavaScript snippets with a time limit.
// It backs the behavioural fallback of the cipher rule miner.
package jsengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// NameGoja selects the goja engine.
	NameGoja = "goja"
	// NameOtto selects the otto engine.
	NameOtto = "otto"
	// NameOff disables script evaluation.
	NameOff = "off"

	defaultTimeout = 2 * time.Second
)

// ErrTimeout is returned when evaluation is interrupted by the deadline.
var ErrTimeout = errors.New("script evaluation interrupted")

// Engine evaluates a self-contained expression and returns its string value.
type Engine interface {
	Name() string
	Eval(ctx context.Context, src string) (string, error)
}

// New returns the engine called name. "off" and "" return a nil Engine.
func New(name string, timeout time.Duration) (Engine, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameOff:
		return nil, nil
	case NameGoja:
		return &Goja{Timeout: timeout}, nil
	case NameOtto:
		return &Otto{Timeout: timeout}, nil
	}
	return nil, fmt.Errorf("unknown js engine %q", name)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
