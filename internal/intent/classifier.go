package intent

import (
	"sort"
	"strings"

	"ops-agent/internal/domain"
)

// Option configures a Classifier.
type Option func(*config)

type config struct {
	rules     []Rule
	followUps []string
	aliases   Aliases
}

// WithRules replaces the intent table.
func WithRules(rules []Rule) Option {
	return func(c *config) { c.rules = rules }
}

// WithFollowUps replaces the follow-up keyword set.
func WithFollowUps(keywords []string) Option {
	return func(c *config) { c.followUps = keywords }
}

// WithAliases replaces the region alias table.
func WithAliases(a Aliases) Option {
	return func(c *config) { c.aliases = a }
}

type compiledRule struct {
	Rule
	phrases []phrase
}

type regionAlias struct {
	phrase    phrase
	canonical string
}

// Classifier resolves queries against a compiled intent table. It holds no
// per-conversation state and is safe for concurrent use.
type Classifier struct {
	rules     []compiledRule
	followUps []phrase
	aliases   []regionAlias
}

// New compiles a Classifier. Without options it uses DefaultRules,
// DefaultFollowUps and DefaultAliases.
func New(opts ...Option) *Classifier {
	cfg := &config{
		rules:     DefaultRules(),
		followUps: DefaultFollowUps(),
		aliases:   DefaultAliases(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Classifier{}
	for _, r := range cfg.rules {
		cr := compiledRule{Rule: r}
		for _, kw := range r.Keywords {
			if p := newPhrase(kw); len(p) > 0 {
				cr.phrases = append(cr.phrases, p)
			}
		}
		c.rules = append(c.rules, cr)
	}
	for _, kw := range cfg.followUps {
		if p := newPhrase(kw); len(p) > 0 {
			c.followUps = append(c.followUps, p)
		}
	}
	for alias, canonical := range cfg.aliases {
		if p := newPhrase(alias); len(p) > 0 {
			c.aliases = append(c.aliases, regionAlias{phrase: p, canonical: canonical})
		}
	}
	// Longer aliases first so "abu dhabi" wins over a bare "abu"; then
	// alphabetical so map iteration order never leaks into results.
	sort.Slice(c.aliases, func(i, j int) bool {
		a, b := c.aliases[i], c.aliases[j]
		if len(a.phrase) != len(b.phrase) {
			return len(a.phrase) > len(b.phrase)
		}
		return joinPhrase(a.phrase) < joinPhrase(b.phrase)
	})
	return c
}

// Classify resolves query to an intent. Topic rules are tried first in table
// order; if none match, a follow-up keyword continues cc.LastTopic; otherwise
// the result is Fallback. Empty or whitespace-only input is Fallback.
func (c *Classifier) Classify(query string, cc domain.ConversationContext) Intent {
	locale := DetectLocale(query)
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return Intent{Kind: KindFallback, Locale: locale}
	}

	region := c.Region(tokens)
	for _, r := range c.rules {
		if r.MatchRegion {
			if region != "" {
				return Intent{Kind: r.Kind, Region: region, Locale: locale}
			}
			continue
		}
		for _, p := range r.phrases {
			if p.in(tokens) {
				return Intent{Kind: r.Kind, Region: region, Locale: locale}
			}
		}
	}

	for _, p := range c.followUps {
		if p.in(tokens) {
			return Intent{Kind: KindFollowUp, Continues: cc.LastTopic, Locale: locale}
		}
	}
	return Intent{Kind: KindFallback, Locale: locale}
}

// Region returns the canonical region for the earliest alias found in tokens,
// or "" if none is present.
func (c *Classifier) Region(tokens []string) string {
	for i := range tokens {
		for _, a := range c.aliases {
			if a.phrase.at(tokens, i) {
				return a.canonical
			}
		}
	}
	return ""
}

// RegionOf is Region for raw text.
func (c *Classifier) RegionOf(text string) string {
	return c.Region(tokenize(text))
}

func joinPhrase(p phrase) string {
	return strings.Join(p, " ")
}
