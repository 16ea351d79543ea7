package cipher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ytget/ytresolve/internal/jsengine"
)

func TestClassifyByExecution(t *testing.T) {
	tests := []struct {
		name    string
		params  string
		decl    string
		want    Kind
		wantErr bool
	}{
		{"shift loop", "a,b", "{for(var i=0;i<b;i++)a.shift()}", KindSlice, false},
		{"two arg reverse", "a,b", "{a.reverse()}", KindReverse, false},
		{"swap without var", "x,y", "{y%=x.length;x.push(x[0]);x[0]=x[y];x[y]=x.pop()}", KindSwap, false},
		{"returns array", "a,b", "{return a.slice(b)}", KindSlice, false},
		{"push", "a,b", "{a.push(b)}", KindUnknown, false},
		{"throws", "a,b", "{throw new Error('x')}", KindUnknown, true},
		{"empty", "", "", KindUnknown, false},
	}
	for _, e := range []jsengine.Engine{&jsengine.Goja{Timeout: time.Second}, &jsengine.Otto{Timeout: time.Second}} {
		for _, tt := range tests {
			got, err := classifyByExecution(context.Background(), e, tt.params, tt.decl)
			if got != tt.want || (err != nil) != tt.wantErr {
				t.Errorf("%s/%s: got %v,%v want %v,err=%v", e.Name(), tt.name, got, err, tt.want, tt.wantErr)
			}
			if err != nil && !IsJSError(err) {
				t.Errorf("%s/%s: error %v is not a JS execution error", e.Name(), tt.name, err)
			}
		}
	}
}

func TestMiner_EngineErrorsAreReported(t *testing.T) {
	script := strings.Replace(playerFixture, `Bz.Sp(a,2);return`, `Bz.Sp(a,2);Bz.Th(a,1);return`, 1)
	script = strings.Replace(script, `var Bz={`, `var Bz={Th:function(a,b){throw new Error("nope")},`, 1)

	m := &Miner{Engine: &jsengine.Otto{Timeout: time.Second}}
	res, err := m.Mine(context.Background(), script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Complete() || len(res.Unresolved) != 1 || res.Unresolved[0] != "Th" {
		t.Fatalf("unresolved = %v", res.Unresolved)
	}
	if len(res.EngineErrors) != 1 || !strings.HasPrefix(res.EngineErrors[0], "Th: ") {
		t.Fatalf("engine errors = %v", res.EngineErrors)
	}
}

func TestMiner_EngineResolvesUnknownShapes(t *testing.T) {
	script := strings.Replace(playerFixture, `Bz.Sp(a,2);return`, `Bz.Sp(a,2);Bz.Sh(a,1);return`, 1)
	script = strings.Replace(script, `var Bz={`, `var Bz={Sh:function(a,b){for(var i=0;i<b;i++)a.shift()},`, 1)

	plain, err := Mine(script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.Complete() {
		t.Fatal("pattern-only mining should leave Sh unresolved")
	}

	m := &Miner{Engine: &jsengine.Goja{Timeout: time.Second}}
	res, err := m.Mine(context.Background(), script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Complete() {
		t.Fatalf("unresolved with engine: %v", res.Unresolved)
	}
	// reverse, swap(3), slice(2), slice(1)
	if got := res.Program.Apply("abcdef"); got != "fba" {
		t.Fatalf("got %q", got)
	}
}
