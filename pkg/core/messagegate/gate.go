package messagegate

import (
	"fmt"
	"regexp"
	"strings"
)

// RejectionMessage is shown to the sender whenever a message is blocked
const RejectionMessage = "Please don't share contact details in chat."

// Rule is a single contact-information check
type Rule interface {
	// Name returns a human-readable identifier for this rule
	Name() string

	// Match reports whether text trips this rule
	Match(text string) bool
}

// PatternRule is a Rule backed by a regular expression
type PatternRule struct {
	name    string
	pattern *regexp.Regexp
}

// NewPatternRule compiles expr into a rule
func NewPatternRule(name, expr string) (*PatternRule, error) {
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for rule %s: %w", name, err)
	}
	return &PatternRule{name: name, pattern: pattern}, nil
}

// MustPatternRule is like NewPatternRule but panics on an invalid expression
func MustPatternRule(name, expr string) *PatternRule {
	rule, err := NewPatternRule(name, expr)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *PatternRule) Name() string {
	return r.name
}

func (r *PatternRule) Match(text string) bool {
	return r.pattern.MatchString(text)
}

// TermRule blocks a case-insensitive whole-word term
func TermRule(term string) (*PatternRule, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("blocked term must not be empty")
	}
	return NewPatternRule("term:"+strings.ToLower(term), `(?i)\b`+regexp.QuoteMeta(term)+`\b`)
}

// DefaultRules returns the ordered rule set applied to every chat message.
// The set is deliberately broad: legitimate messages mentioning "email" are blocked too.
func DefaultRules() []Rule {
	return []Rule{
		MustPatternRule("long_digit_run", `\b\d{10,}\b`),
		MustPatternRule("uk_national_number", `\b0\d{9,}\b`),
		MustPatternRule("uk_international_number", `\+44\s?\d{9,}`),
		MustPatternRule("email_address", `@\w+\.\w+`),
		MustPatternRule("word_email", `(?i)\bemail\b`),
		MustPatternRule("word_phone", `(?i)\bphone\b`),
		MustPatternRule("phrase_call_me", `(?i)\bcall me\b`),
		MustPatternRule("phrase_text_me", `(?i)\btext me\b`),
		MustPatternRule("phrase_message_me", `(?i)\bmessage me\b`),
		MustPatternRule("social_platform", `(?i)instagram|facebook|snapchat|tiktok|twitter`),
	}
}

// Verdict is the outcome of validating a message
type Verdict struct {
	Allowed bool
	// Rule names the first rule that matched when the message is blocked
	Rule string
}

// Gate applies an ordered list of rules to outgoing messages
type Gate struct {
	rules []Rule
}

// New creates a gate with the given rules, in order
func New(rules ...Rule) *Gate {
	return &Gate{rules: rules}
}

// NewDefault creates a gate with DefaultRules followed by a TermRule per extra term
func NewDefault(extraTerms []string) (*Gate, error) {
	rules := DefaultRules()
	for _, term := range extraTerms {
		rule, err := TermRule(term)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return New(rules...), nil
}

// Rules returns the gate's rules in evaluation order
func (g *Gate) Rules() []Rule {
	return append([]Rule(nil), g.rules...)
}

// Validate returns Blocked with the first matching rule, or Allowed when none match
func (g *Gate) Validate(text string) Verdict {
	for _, rule := range g.rules {
		if rule.Match(text) {
			return Verdict{Allowed: false, Rule: rule.Name()}
		}
	}
	return Verdict{Allowed: true}
}
