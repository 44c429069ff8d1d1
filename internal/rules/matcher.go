package rules

import (
	"regexp"
	"strings"

	"giftwall/pkg/logger"
	"giftwall/pkg/models"
)

// Fields holds the free-text values of a submission in the order they are
// checked against each rule.
type Fields struct {
	AuthorName string
	Text       string
	LinkURL    string
	MediaURL   string
	VideoURL   string
}

// Match reports which rule hit and on which field.
type Match struct {
	Rule  models.ContentRule
	Field string
}

type Matcher struct {
	logger *logger.Logger
}

func NewMatcher(log *logger.Logger) *Matcher {
	return &Matcher{logger: log}
}

// fieldOrder is fixed: the first matching field of the first matching rule
// wins.
var fieldOrder = []string{"author_name", "text", "link_url", "media_url", "video_url"}

func (f Fields) get(name string) string {
	switch name {
	case "author_name":
		return f.AuthorName
	case "text":
		return f.Text
	case "link_url":
		return f.LinkURL
	case "media_url":
		return f.MediaURL
	case "video_url":
		return f.VideoURL
	}
	return ""
}

// Evaluate scans block rules before allow rules and returns the first match.
// An allow match is informational only; it can never override a block because
// blocks are checked first and exclusively. Rules are expected to be already
// filtered to active ones in scope (see Repository.ActiveRules).
func (m *Matcher) Evaluate(ruleset []models.ContentRule, f Fields) *Match {
	for _, ruleType := range []models.RuleType{models.RuleTypeBlock, models.RuleTypeAllow} {
		for _, rule := range ruleset {
			if rule.RuleType != ruleType {
				continue
			}
			for _, field := range fieldOrder {
				value := normalize(f.get(field))
				if value == "" {
					continue
				}
				if m.matches(rule, value) {
					return &Match{Rule: rule, Field: field}
				}
			}
		}
	}
	return nil
}

func (m *Matcher) matches(rule models.ContentRule, value string) bool {
	expr := normalize(rule.Expression)
	if expr == "" {
		return false
	}

	switch rule.MatchType {
	case models.MatchTypeExact:
		return value == expr
	case models.MatchTypeContains:
		return strings.Contains(value, expr)
	case models.MatchTypeWord:
		return m.matchWord(expr, value)
	}
	return false
}

// boundary is the punctuation set that delimits a whole word, besides
// whitespace and start/end of string.
const boundary = `[\s.,!?;:'"()\[\]{}<>«»\-_/\\]`

// matchWord wraps the raw expression in boundary assertions. Regexp
// metacharacters in the expression keep their meaning, so an expression that
// is not a valid pattern fails to compile and drops to the fallback.
func (m *Matcher) matchWord(expr, value string) bool {
	pattern := `(^|` + boundary + `)` + expr + `($|` + boundary + `)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		// Malformed expression: fall back to naive whitespace-split
		// containment so the rule still does something rather than nothing.
		if m.logger != nil {
			m.logger.Warn("word rule %q failed to compile, using whitespace fallback: %v", expr, err)
		}
		for _, token := range strings.Fields(value) {
			if token == expr {
				return true
			}
		}
		return false
	}
	return re.MatchString(value)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
