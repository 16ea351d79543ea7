package cipher

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytresolve/internal/jsengine"
	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/internal/rulecache"
)

// Patterns are compiled once. Name-specific lookups locate the name with a
// plain string search and then match one of the anchored tails below.
var (
	entryPointRe = regexp.MustCompile(`=([$\w]+)\(decodeURIComponent\(`)
	// "(a){...}" after "NAME=function" or "function NAME"; one brace level only.
	entryBodyRe = regexp.MustCompile(`^\(\w+\)\{[^{]+\}`)
	callRe      = regexp.MustCompile(`(?:[$\w]+\.)?([$\w]+)\(\w+,(\d+)\)`)
	// "(a,b){...}" after "NAME:function".
	declTailRe = regexp.MustCompile(`^\((\w+,\w+)\)(\{[^{}]+\})`)
	sliceRe    = regexp.MustCompile(`\.splice\(\d+,\w+\)`)
	swapRe     = regexp.MustCompile(`var\s\w=.*\[\w+%\w+\.length`)
)

// MineResult is everything learned from one player script.
type MineResult struct {
	EntryPoint string  `json:"entryPoint"`
	Calls      []Call  `json:"calls"`
	Rules      []Rule  `json:"rules"`
	Program    Program `json:"program"`
	// Unresolved lists called names no rule could be found for. Their calls
	// are missing from Program, so the decoded signature may be wrong.
	Unresolved []string `json:"unresolved,omitempty"`
	// EngineErrors holds "name: error" for declarations the JS engine
	// failed to run.
	EngineErrors []string `json:"engineErrors,omitempty"`
	ScriptHash   string   `json:"scriptHash"`
}

// Complete reports whether every call was classified.
func (r *MineResult) Complete() bool {
	return len(r.Unresolved) == 0
}

// Miner extracts cipher rules from player scripts.
type Miner struct {
	// Engine, when set, classifies declarations the patterns do not recognise
	// by running them on a probe input.
	Engine jsengine.Engine
}

// Mine runs a pattern-only Miner over script.
func Mine(script string) (*MineResult, error) {
	return (&Miner{}).Mine(context.Background(), script)
}

// Mine locates the decipher entry point, lists the calls in its body in
// order, and classifies every called name into a Rule.
func (m *Miner) Mine(ctx context.Context, script string) (*MineResult, error) {
	log := logger.WithComponent(logger.ComponentCipher)

	em := entryPointRe.FindStringSubmatch(script)
	if len(em) < 2 {
		return nil, NewError(ErrCodeEntryPointNotFound, "decodeURIComponent call site not found")
	}
	entry := em[1]

	body, ok := entryBody(script, entry)
	if !ok {
		return nil, NewError(ErrCodeEntryPointNotFound, "entry point body not found", map[string]string{"name": entry})
	}

	calls, unparsable := parseCalls(body)
	res := &MineResult{
		EntryPoint: entry,
		Calls:      calls,
		ScriptHash: rulecache.KeyFromScript(script),
	}

	seen := make(map[string]bool)
	for _, c := range res.Calls {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true

		params, decl := declaration(script, c.Name)
		kind, ok := classify(decl)
		if !ok && m.Engine != nil {
			var err error
			kind, err = classifyByExecution(ctx, m.Engine, params, decl)
			if IsJSError(err) {
				res.EngineErrors = append(res.EngineErrors, c.Name+": "+err.Error())
			}
			ok = kind != KindUnknown
		}
		if !ok {
			log.Debug("Unclassified declaration", map[string]interface{}{"name": c.Name, "body": decl})
			continue
		}
		res.Rules = append(res.Rules, Rule{Name: c.Name, Kind: kind})
	}

	res.Program, res.Unresolved = Join(res.Calls, res.Rules)
	for _, name := range unparsable {
		if !containsString(res.Unresolved, name) {
			res.Unresolved = append(res.Unresolved, name)
		}
	}
	log.Debug("Rules mined", map[string]interface{}{
		"entry":      entry,
		"calls":      len(res.Calls),
		"rules":      len(res.Rules),
		"unresolved": len(res.Unresolved),
		"program":    res.Program.String(),
	})
	return res, nil
}

// entryBody returns "(a){...}" for name, trying "NAME=function(" (preceded by
// a non-word character) before "function NAME(".
func entryBody(script, name string) (string, bool) {
	if body, ok := findTail(script, name+"=function", entryBodyRe, true); ok {
		return body[0], true
	}
	if body, ok := findTail(script, "function "+name, entryBodyRe, false); ok {
		return body[0], true
	}
	return "", false
}

// declaration returns the parameter list and body of "NAME:function(a,b){...}",
// or empty strings when the script has no such two-argument declaration.
func declaration(script, name string) (string, string) {
	m, ok := findTail(script, name+":function", declTailRe, true)
	if !ok {
		return "", ""
	}
	return m[1], m[2]
}

// findTail finds the first occurrence of prefix followed by text matching the
// anchored tail. With boundary set, the occurrence must be preceded by a
// character that cannot be part of an identifier.
func findTail(script, prefix string, tail *regexp.Regexp, boundary bool) ([]string, bool) {
	for off := 0; off < len(script); {
		i := strings.Index(script[off:], prefix)
		if i < 0 {
			return nil, false
		}
		i += off
		off = i + 1
		if boundary && (i == 0 || isIdentByte(script[i-1])) {
			continue
		}
		if m := tail.FindStringSubmatch(script[i+len(prefix):]); m != nil {
			return m, true
		}
	}
	return nil, false
}

func isIdentByte(c byte) bool {
	return c == '$' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseCalls lists "name(x,N)" and "obj.name(x,N)" calls in order. Arg is
// the explicit second parameter. Calls whose argument does not fit an int
// are left out and their names returned separately.
func parseCalls(body string) (calls []Call, unparsable []string) {
	matches := callRe.FindAllStringSubmatch(body, -1)
	calls = make([]Call, 0, len(matches))
	for _, mm := range matches {
		arg, err := strconv.Atoi(mm[2])
		if err != nil {
			if !containsString(unparsable, mm[1]) {
				unparsable = append(unparsable, mm[1])
			}
			continue
		}
		calls = append(calls, Call{Name: mm[1], Arg: arg, Seq: len(calls)})
	}
	return calls, unparsable
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// classify maps a declaration body to a kind. An empty body is a reversal:
// the reverse helper takes a single argument and never matches the
// two-argument declaration shape.
func classify(decl string) (Kind, bool) {
	switch {
	case sliceRe.MatchString(decl):
		return KindSlice, true
	case swapRe.MatchString(decl):
		return KindSwap, true
	case decl == "":
		return KindReverse, true
	}
	return KindUnknown, false
}
