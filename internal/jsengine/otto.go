package jsengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robertkrimen/otto"
)

// Otto runs scripts on github.com/robertkrimen/otto.
type Otto struct {
	Timeout time.Duration
}

func (o *Otto) Name() string { return NameOtto }

// errHalt is the panic value used to stop a running otto VM.
var errHalt = errors.New("otto: halt")

// Eval runs src in a fresh VM, halting it through vm.Interrupt when ctx is
// done or Timeout elapses.
func (o *Otto) Eval(ctx context.Context, src string) (result string, err error) {
	ctx, cancel := withTimeout(ctx, o.Timeout)
	defer cancel()

	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt <- func() { panic(errHalt) }
		case <-done:
		}
	}()

	defer func() {
		if caught := recover(); caught != nil {
			if caught == errHalt {
				result, err = "", fmt.Errorf("otto: %w", ErrTimeout)
				return
			}
			panic(caught)
		}
	}()

	value, err := vm.Run(src)
	if err != nil {
		return "", fmt.Errorf("otto: run script: %w", err)
	}
	if value.IsUndefined() || value.IsNull() {
		return "", errors.New("otto: script returned undefined/null")
	}
	return value.ToString()
}
