// Package canned selects a pre-written reply when no language-model provider
// produced one. Selection is a first-match decision list loaded from
// rules.yaml; there is no scoring and no randomness.
package canned

import (
	"fmt"
	"strings"
	"unicode"
)

type Scope string

const (
	ScopeMessage Scope = "message"
	ScopeContext Scope = "context"
)

// Predicate matches when any substring keyword or whole-word keyword occurs
// in the text selected by Scope.
type Predicate struct {
	Scope Scope    `yaml:"scope,omitempty" json:"scope,omitempty"`
	Any   []string `yaml:"any,omitempty" json:"any,omitempty"`
	Words []string `yaml:"words,omitempty" json:"words,omitempty"`
}

type Variant struct {
	Name     string    `yaml:"name" json:"name"`
	When     Predicate `yaml:"when" json:"when"`
	Response string    `yaml:"response" json:"response"`
}

type Rule struct {
	Name     string    `yaml:"name" json:"name"`
	When     Predicate `yaml:"when" json:"when"`
	Response string    `yaml:"response" json:"response"`
	Variants []Variant `yaml:"variants,omitempty" json:"variants,omitempty"`
}

type Table struct {
	Version int    `yaml:"version" json:"version"`
	Default string `yaml:"default" json:"default"`
	Rules   []Rule `yaml:"rules" json:"rules"`
}

// Selection describes which entry of the table produced a reply.
// Rule is empty when the default template was used.
type Selection struct {
	Rule    string
	Variant string
	Text    string
}

type Matcher struct {
	rules []Rule
	def   string
}

// NewMatcher normalizes keywords and checks the table for obvious mistakes.
func NewMatcher(t Table) (*Matcher, error) {
	if strings.TrimSpace(t.Default) == "" {
		return nil, fmt.Errorf("canned: default response is required")
	}
	seen := make(map[string]struct{}, len(t.Rules))
	rules := make([]Rule, 0, len(t.Rules))
	for i, r := range t.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("canned: rule %d has no name", i)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("canned: duplicate rule %q", r.Name)
		}
		seen[r.Name] = struct{}{}

		when, err := normalizePredicate(r.When)
		if err != nil {
			return nil, fmt.Errorf("canned: rule %q: %w", r.Name, err)
		}
		out := Rule{Name: r.Name, When: when, Response: strings.TrimSpace(r.Response)}
		for _, v := range r.Variants {
			vw, err := normalizePredicate(v.When)
			if err != nil {
				return nil, fmt.Errorf("canned: rule %q variant %q: %w", r.Name, v.Name, err)
			}
			out.Variants = append(out.Variants, Variant{Name: v.Name, When: vw, Response: strings.TrimSpace(v.Response)})
		}
		rules = append(rules, out)
	}
	return &Matcher{rules: rules, def: strings.TrimSpace(t.Default)}, nil
}

func normalizePredicate(p Predicate) (Predicate, error) {
	switch p.Scope {
	case "":
		p.Scope = ScopeMessage
	case ScopeMessage, ScopeContext:
	default:
		return p, fmt.Errorf("unknown scope %q", p.Scope)
	}
	if len(p.Any) == 0 && len(p.Words) == 0 {
		return p, fmt.Errorf("predicate has no keywords")
	}
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	p.Any = lower(p.Any)
	p.Words = lower(p.Words)
	return p, nil
}

// Match returns the reply template for message, using recentUserTurns
// (oldest first) as context for context-scoped predicates.
func (m *Matcher) Match(message string, recentUserTurns []string) string {
	return m.Select(message, recentUserTurns).Text
}

// Select is Match plus the name of the rule and variant that fired.
func (m *Matcher) Select(message string, recentUserTurns []string) Selection {
	parts := make([]string, 0, len(recentUserTurns)+1)
	parts = append(parts, recentUserTurns...)
	parts = append(parts, message)

	in := input{
		message: newText(message),
		context: newText(strings.Join(parts, " ")),
	}

	for _, r := range m.rules {
		if !r.When.matches(in) {
			continue
		}
		for _, v := range r.Variants {
			if v.When.matches(in) {
				return Selection{Rule: r.Name, Variant: v.Name, Text: v.Response}
			}
		}
		return Selection{Rule: r.Name, Text: r.Response}
	}
	return Selection{Text: m.def}
}

// Rules returns the rule names in evaluation order.
func (m *Matcher) Rules() []string {
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.Name
	}
	return out
}

type input struct {
	message text
	context text
}

type text struct {
	lower string
	words map[string]struct{}
}

func newText(s string) text {
	lower := strings.ToLower(strings.TrimSpace(s))
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[strings.Trim(f, "'")] = struct{}{}
	}
	return text{lower: lower, words: words}
}

func (p Predicate) matches(in input) bool {
	t := in.message
	if p.Scope == ScopeContext {
		t = in.context
	}
	for _, kw := range p.Any {
		if strings.Contains(t.lower, kw) {
			return true
		}
	}
	for _, w := range p.Words {
		if _, ok := t.words[w]; ok {
			return true
		}
	}
	return false
}
