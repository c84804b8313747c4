// Package formula turns generated text into a candidate expression and
// decides whether that candidate is safe to hand to an evaluator.
package formula

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/liamcoop/formulas/policy"
)

// Rule names the check a candidate failed.
type Rule string

const (
	RuleForbiddenKeyword      Rule = "forbidden_keyword"
	RuleUnknownIdentifier     Rule = "unknown_identifier"
	RuleUnbalancedParentheses Rule = "unbalanced_parentheses"
)

// ValidationError describes the first policy violation found in a candidate.
type ValidationError struct {
	Rule    Rule
	Token   string // offending keyword or identifier, empty for structural failures
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// identifierPattern extracts identifier-shaped runs. Word boundaries keep
// suffixes of numeric literals such as 1e5 from being read as identifiers.
var identifierPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)

// Validator checks candidates against a policy catalog.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	catalog  *policy.Catalog
	names    []string // forbidden keywords as declared
	keywords []string // lower-cased, same order as names
	allowed  string   // pre-rendered list for error messages
}

// NewValidator creates a Validator for the given catalog.
func NewValidator(catalog *policy.Catalog) *Validator {
	kws := catalog.ForbiddenKeywords()
	lowered := make([]string, len(kws))
	for i, kw := range kws {
		lowered[i] = strings.ToLower(kw)
	}

	return &Validator{
		catalog:  catalog,
		names:    kws,
		keywords: lowered,
		allowed:  strings.Join(catalog.AllowedVariables(), ", "),
	}
}

// Validate returns nil if candidate uses only permitted vocabulary, or a
// *ValidationError for the first violation. Checks run in order:
// forbidden keywords, identifiers, parenthesis balance.
func (v *Validator) Validate(candidate string) error {
	if err := v.checkKeywords(candidate); err != nil {
		return err
	}
	if err := v.checkIdentifiers(candidate); err != nil {
		return err
	}
	return checkParentheses(candidate)
}

// checkKeywords is a substring test, not a word match: "classic" is
// rejected for containing "class".
func (v *Validator) checkKeywords(candidate string) error {
	lower := strings.ToLower(candidate)
	for i, kw := range v.keywords {
		if strings.Contains(lower, kw) {
			original := v.names[i]
			return &ValidationError{
				Rule:    RuleForbiddenKeyword,
				Token:   original,
				Message: fmt.Sprintf("Forbidden keyword detected: %s", original),
			}
		}
	}
	return nil
}

func (v *Validator) checkIdentifiers(candidate string) error {
	for _, id := range identifierPattern.FindAllString(candidate, -1) {
		if v.catalog.IsLiteral(id) {
			continue
		}
		if !v.catalog.IsAllowedVariable(id) {
			return &ValidationError{
				Rule:    RuleUnknownIdentifier,
				Token:   id,
				Message: fmt.Sprintf("Unknown variable: %s. Only allowed: %s", id, v.allowed),
			}
		}
	}
	return nil
}

// checkParentheses compares counts only; ")(" passes.
func checkParentheses(candidate string) error {
	if strings.Count(candidate, "(") != strings.Count(candidate, ")") {
		return &ValidationError{
			Rule:    RuleUnbalancedParentheses,
			Message: "Unbalanced parentheses",
		}
	}
	return nil
}
