package jsengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// Goja runs scripts on github.com/dop251/goja.
type Goja struct {
	Timeout time.Duration
}

func (g *Goja) Name() string { return NameGoja }

// Eval runs src in a fresh runtime. The runtime is interrupted when ctx is
// done or Timeout elapses.
func (g *Goja) Eval(ctx context.Context, src string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	vm := goja.New()
	// Provide a minimal console.log
	_ = vm.Set("console", map[string]any{
		"log": func(...any) {},
	})
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ErrTimeout) })
	defer stop()

	res, err := vm.RunString(src)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return "", fmt.Errorf("goja: %w", ErrTimeout)
		}
		return "", fmt.Errorf("goja: run script: %w", err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return "", errors.New("goja: script returned undefined/null")
	}
	return res.String(), nil
}
