// Package responder implements the rule-based reply engine of the help desk
// chatbot. Rules are evaluated in declared order against a normalised copy of
// the user's message; the first rule with a trigger inside the message wins
// and the fallback answers everything else.
package responder

import (
	"fmt"
	"sort"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// Match reports which rule a message resolved to.
type Match struct {
	Rule     string
	Index    int // position in the rule list, -1 for the fallback
	Trigger  string
	Fallback bool
}

// Reply is a rendered response together with the rule that produced it.
type Reply struct {
	Rule string
	Text string
}

// Engine resolves user messages to canned replies. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	rules        []Rule
	fallback     Rule
	callToAction string

	matcher *goahocorasick.Machine
	owners  map[string][]int // normalised trigger -> indices of rules declaring it
}

// New builds an engine from rules in priority order. The fallback needs no
// triggers. callToAction is appended to anonymous replies when non-empty.
func New(rules []Rule, fallback Rule, callToAction string) (*Engine, error) {
	if fallback.Name == "" {
		fallback.Name = RuleFallback
	}
	if err := fallback.validateTemplates(); err != nil {
		return nil, fmt.Errorf("fallback rule: %w", err)
	}

	owners := make(map[string][]int)
	for i, rule := range rules {
		if strings.TrimSpace(rule.Name) == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
		if err := rule.validateTemplates(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		if len(rule.Triggers) == 0 {
			return nil, fmt.Errorf("rule %q: at least one trigger is required", rule.Name)
		}
		for _, trigger := range rule.Triggers {
			key := Normalize(trigger)
			if key == "" {
				return nil, fmt.Errorf("rule %q: blank trigger", rule.Name)
			}
			if !lo.Contains(owners[key], i) {
				owners[key] = append(owners[key], i)
			}
		}
	}

	e := &Engine{
		rules:        append([]Rule(nil), rules...),
		fallback:     fallback,
		callToAction: strings.TrimSpace(callToAction),
		owners:       owners,
	}

	if len(owners) > 0 {
		keys := lo.Keys(owners)
		sort.Strings(keys)
		patterns := lo.Map(keys, func(k string, _ int) []rune { return []rune(k) })

		m := new(goahocorasick.Machine)
		if err := m.Build(patterns); err != nil {
			return nil, fmt.Errorf("failed to build trigger automaton: %w", err)
		}
		e.matcher = m
	}

	return e, nil
}

// MustNew is like New but panics on error. Intended for the built-in rules.
func MustNew(rules []Rule, fallback Rule, callToAction string) *Engine {
	e, err := New(rules, fallback, callToAction)
	if err != nil {
		panic(err)
	}
	return e
}

// NewDefault returns an engine with the built-in rule set.
func NewDefault() *Engine {
	return MustNew(DefaultRules(), DefaultFallback(), DefaultCallToAction)
}

// Rules returns the rule names in priority order.
func (e *Engine) Rules() []string {
	return lo.Map(e.rules, func(r Rule, _ int) string { return r.Name })
}

// Match finds the highest priority rule with a trigger contained in text.
func (e *Engine) Match(text string) Match {
	miss := Match{Rule: e.fallback.Name, Index: -1, Fallback: true}

	if e.matcher == nil {
		return miss
	}
	content := []rune(Normalize(text))
	if len(content) == 0 {
		return miss
	}

	best, trigger := -1, ""
	for _, term := range e.matcher.MultiPatternSearch(content, false) {
		word := string(term.Word)
		for _, idx := range e.owners[word] {
			if best < 0 || idx < best {
				best, trigger = idx, word
			}
		}
	}
	if best < 0 {
		return miss
	}
	return Match{Rule: e.rules[best].Name, Index: best, Trigger: trigger}
}

// Resolve renders the reply for text in the given auth context.
func (e *Engine) Resolve(text string, auth AuthContext) Reply {
	m := e.Match(text)
	rule := e.fallback
	if !m.Fallback {
		rule = e.rules[m.Index]
	}
	return Reply{Rule: rule.Name, Text: e.render(rule, auth)}
}

// Respond returns only the reply text. It never returns an empty string.
func (e *Engine) Respond(text string, auth AuthContext) string {
	return e.Resolve(text, auth).Text
}

func (e *Engine) render(rule Rule, auth AuthContext) string {
	if auth.Authenticated {
		return strings.ReplaceAll(rule.Authenticated, NamePlaceholder, auth.Name())
	}
	if e.callToAction == "" {
		return rule.Anonymous
	}
	return rule.Anonymous + "\n\n" + e.callToAction
}

// Normalize prepares text for trigger matching: NFC composition, lower case
// and collapsed whitespace.
func Normalize(text string) string {
	lowered := strings.ToLower(norm.NFC.String(text))
	return strings.Join(strings.Fields(lowered), " ")
}
