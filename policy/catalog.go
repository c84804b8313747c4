package policy

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Catalog is the fixed vocabulary a generated formula is checked against.
// A Catalog is never mutated after construction and is safe to share
// between goroutines.
type Catalog struct {
	allowedVariables  []string
	forbiddenKeywords []string
	literalTokens     []string

	allowedSet map[string]struct{}
	literalSet map[string]struct{}
}

type catalogDocument struct {
	AllowedVariables  []string `yaml:"allowed_variables"`
	ForbiddenKeywords []string `yaml:"forbidden_keywords"`
	LiteralTokens     []string `yaml:"literal_tokens"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
// It panics if the embedded document is invalid, which can only happen
// through a broken build.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("policy: embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse builds a Catalog from a YAML document with the sections
// allowed_variables, forbidden_keywords and literal_tokens.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	sections := []struct {
		name   string
		values []string
	}{
		{"allowed_variables", doc.AllowedVariables},
		{"forbidden_keywords", doc.ForbiddenKeywords},
		{"literal_tokens", doc.LiteralTokens},
	}
	for _, s := range sections {
		if len(s.values) == 0 {
			return nil, fmt.Errorf("catalog section %q cannot be empty", s.name)
		}
		for _, v := range s.values {
			if err := validateEntry(v); err != nil {
				return nil, fmt.Errorf("invalid entry %q in %s: %w", v, s.name, err)
			}
		}
	}

	c := &Catalog{
		allowedVariables:  append([]string(nil), doc.AllowedVariables...),
		forbiddenKeywords: append([]string(nil), doc.ForbiddenKeywords...),
		literalTokens:     append([]string(nil), doc.LiteralTokens...),
		allowedSet:        toSet(doc.AllowedVariables),
		literalSet:        toSet(doc.LiteralTokens),
	}

	for name := range c.allowedSet {
		if _, clash := c.literalSet[name]; clash {
			return nil, fmt.Errorf("%q is declared both as a variable and as a literal token", name)
		}
	}

	return c, nil
}

// validateEntry applies the identifier rules every catalog entry must meet:
// 1-100 characters matching ^[a-zA-Z_][a-zA-Z0-9_]*$.
func validateEntry(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("entry cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("entry length %d exceeds maximum of 100 characters", len(name))
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$")
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// AllowedVariables returns the permitted variable names in declared order.
func (c *Catalog) AllowedVariables() []string {
	return append([]string(nil), c.allowedVariables...)
}

// ForbiddenKeywords returns the denied keywords in the order they are checked.
func (c *Catalog) ForbiddenKeywords() []string {
	return append([]string(nil), c.forbiddenKeywords...)
}

// LiteralTokens returns identifier-shaped literals that are not variables.
func (c *Catalog) LiteralTokens() []string {
	return append([]string(nil), c.literalTokens...)
}

// IsAllowedVariable reports whether name is a permitted variable.
// The comparison is case-sensitive.
func (c *Catalog) IsAllowedVariable(name string) bool {
	_, ok := c.allowedSet[name]
	return ok
}

// IsLiteral reports whether name is an enumerated literal token.
func (c *Catalog) IsLiteral(name string) bool {
	_, ok := c.literalSet[name]
	return ok
}
