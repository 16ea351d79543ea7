package cipher

import (
	"fmt"
	"strings"
)

// Kind is one of the signature transforms recognised in the player script.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSlice drops the first Arg characters.
	KindSlice
	// KindSwap exchanges position 0 with position Arg mod length.
	KindSwap
	// KindReverse reverses the whole signature. Arg is ignored.
	KindReverse
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindSlice:   "slice",
	KindSwap:    "swap",
	KindReverse: "reverse",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown cipher kind %q", s)
}

// Step is one transform bound to its call-site argument.
type Step struct {
	Kind Kind `json:"kind"`
	Arg  int  `json:"arg,omitempty"`
}

// Apply returns sig transformed by the step.
func (s Step) Apply(sig string) string {
	return string(s.apply([]rune(sig)))
}

// apply may modify r in place.
func (s Step) apply(r []rune) []rune {
	switch s.Kind {
	case KindSlice:
		return sliceRunes(r, s.Arg)
	case KindSwap:
		return swapRunes(r, s.Arg)
	case KindReverse:
		return reverseRunes(r)
	}
	return r
}

func (s Step) String() string {
	if s.Kind == KindReverse {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.Arg)
}

// Program is the ordered list of steps replayed against a signature.
type Program []Step

// Apply runs every step in order.
func (p Program) Apply(sig string) string {
	r := []rune(sig)
	for _, st := range p {
		r = st.apply(r)
	}
	return string(r)
}

func (p Program) String() string {
	parts := make([]string, len(p))
	for i, st := range p {
		parts[i] = st.String()
	}
	return strings.Join(parts, " -> ")
}

// Rule binds a sub-operation name to the transform it performs.
type Rule struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Call is one invocation found in the entry point body.
type Call struct {
	Name string `json:"name"`
	Arg  int    `json:"arg"`
	Seq  int    `json:"seq"`
}

// Join builds the program for calls using rules. Calls whose name has no
// rule are left out of the program and their names returned, each once, in
// order of first appearance.
func Join(calls []Call, rules []Rule) (Program, []string) {
	byName := make(map[string]Kind, len(rules))
	for _, r := range rules {
		byName[r.Name] = r.Kind
	}
	program := make(Program, 0, len(calls))
	var unresolved []string
	seen := make(map[string]bool)
	for _, c := range calls {
		kind, ok := byName[c.Name]
		if !ok || kind == KindUnknown {
			if !seen[c.Name] {
				seen[c.Name] = true
				unresolved = append(unresolved, c.Name)
			}
			continue
		}
		program = append(program, Step{Kind: kind, Arg: c.Arg})
	}
	return program, unresolved
}

func reverseRunes(s []rune) []rune {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}

func sliceRunes(s []rune, n int) []rune {
	if n <= 0 {
		return s
	}
	if n > len(s) {
		return s[:0]
	}
	return s[n:]
}

func swapRunes(s []rune, n int) []rune {
	if len(s) == 0 {
		return s
	}
	n = n % len(s)
	if n < 0 {
		n += len(s)
	}
	s[0], s[n] = s[n], s[0]
	return s
}
