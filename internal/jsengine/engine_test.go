package jsengine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func engines(timeout time.Duration) []Engine {
	return []Engine{&Goja{Timeout: timeout}, &Otto{Timeout: timeout}}
}

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "", wantNil: true},
		{name: "off", wantNil: true},
		{name: "goja", want: NameGoja},
		{name: " OTTO ", want: NameOtto},
		{name: "v8", wantErr: true},
	}
	for _, tc := range cases {
		e, err := New(tc.name, 0)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.name, err)
		}
		if tc.wantNil {
			if e != nil {
				t.Fatalf("%q: expected nil engine", tc.name)
			}
			continue
		}
		if e.Name() != tc.want {
			t.Fatalf("%q: got %s want %s", tc.name, e.Name(), tc.want)
		}
	}
}

func TestEval(t *testing.T) {
	src := `(function(){var a="abcdef".split("");a.reverse();return a.join("")})()`
	for _, e := range engines(time.Second) {
		got, err := e.Eval(context.Background(), src)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", e.Name(), err)
		}
		if got != "fedcba" {
			t.Fatalf("%s: got %q", e.Name(), got)
		}
	}
}

func TestEval_SyntaxError(t *testing.T) {
	for _, e := range engines(time.Second) {
		if _, err := e.Eval(context.Background(), `function (`); err == nil {
			t.Fatalf("%s: expected error", e.Name())
		}
	}
}

func TestEval_Undefined(t *testing.T) {
	for _, e := range engines(time.Second) {
		if _, err := e.Eval(context.Background(), `undefined`); err == nil {
			t.Fatalf("%s: expected error for undefined result", e.Name())
		}
	}
}

func TestEval_Timeout(t *testing.T) {
	for _, e := range engines(50 * time.Millisecond) {
		start := time.Now()
		_, err := e.Eval(context.Background(), `while(true){}`)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("%s: want ErrTimeout, got %v", e.Name(), err)
		}
		if time.Since(start) > 5*time.Second {
			t.Fatalf("%s: interrupt took too long", e.Name())
		}
	}
}

func TestEval_ContextCancel(t *testing.T) {
	for _, e := range engines(time.Minute) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err := e.Eval(ctx, `for(;;){}`)
		cancel()
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("%s: want ErrTimeout, got %v", e.Name(), err)
		}
	}
}
