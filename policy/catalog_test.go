package policy

import (
	"strings"
	"testing"
)

// TestDefaultCatalogVariables verifies the five amortization inputs are the only variables
func TestDefaultCatalogVariables(t *testing.T) {
	c := Default()

	want := []string{"totalAmount", "capPercent", "term", "amortizationFrequency", "payrollClassification"}
	got := c.AllowedVariables()
	if len(got) != len(want) {
		t.Fatalf("Expected %d allowed variables, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllowedVariables()[%d] = %q, want %q", i, got[i], want[i])
		}
		if !c.IsAllowedVariable(want[i]) {
			t.Errorf("Expected %q to be an allowed variable", want[i])
		}
	}
}

// TestDefaultCatalogIsCaseSensitive verifies membership checks do not fold case
func TestDefaultCatalogIsCaseSensitive(t *testing.T) {
	c := Default()

	for _, name := range []string{"TotalAmount", "TERM", "cappercent"} {
		if c.IsAllowedVariable(name) {
			t.Errorf("Expected %q to be rejected as a variable", name)
		}
	}
	if c.IsLiteral("monthly") {
		t.Error("Expected lower-case 'monthly' not to be a literal token")
	}
}

// TestDefaultCatalogLiterals verifies enumerated values and boolean/null tokens are literals
func TestDefaultCatalogLiterals(t *testing.T) {
	c := Default()

	for _, tok := range []string{"true", "false", "null", "undefined", "Monthly", "Quarterly", "Annually", "Biweekly", "W2", "International"} {
		if !c.IsLiteral(tok) {
			t.Errorf("Expected %q to be a literal token", tok)
		}
	}
}

// TestDefaultCatalogKeywordOrder verifies keywords keep their declared check order
func TestDefaultCatalogKeywordOrder(t *testing.T) {
	kws := Default().ForbiddenKeywords()

	if len(kws) != 23 {
		t.Fatalf("Expected 23 forbidden keywords, got %d", len(kws))
	}
	if kws[0] != "function" || kws[len(kws)-1] != "prototype" {
		t.Errorf("Unexpected keyword order: first=%q last=%q", kws[0], kws[len(kws)-1])
	}
}

// TestCatalogAccessorsReturnCopies verifies callers cannot mutate shared state
func TestCatalogAccessorsReturnCopies(t *testing.T) {
	c := Default()

	vars := c.AllowedVariables()
	vars[0] = "window"

	if c.AllowedVariables()[0] != "totalAmount" {
		t.Error("Mutating the returned slice must not change the catalog")
	}

	kws := c.ForbiddenKeywords()
	kws[0] = ""
	if c.ForbiddenKeywords()[0] != "function" {
		t.Error("Mutating the returned keyword slice must not change the catalog")
	}
}

// TestParse_EmptySection verifies every section must contain entries
func TestParse_EmptySection(t *testing.T) {
	doc := []byte(`
allowed_variables: [a]
forbidden_keywords: []
literal_tokens: [b]
`)
	_, err := Parse(doc)
	if err == nil {
		t.Fatal("Expected error for empty forbidden_keywords")
	}
	if !strings.Contains(err.Error(), "forbidden_keywords") {
		t.Errorf("Expected error to name the section, got: %v", err)
	}
}

// TestParse_InvalidEntry verifies entries must be identifier shaped
func TestParse_InvalidEntry(t *testing.T) {
	doc := []byte(`
allowed_variables: ["1total"]
forbidden_keywords: [eval]
literal_tokens: [W2]
`)
	_, err := Parse(doc)
	if err == nil {
		t.Fatal("Expected error for entry starting with a digit")
	}
	if !strings.Contains(err.Error(), "1total") {
		t.Errorf("Expected error to mention the entry, got: %v", err)
	}
}

// TestParse_VariableLiteralClash verifies a name cannot be both variable and literal
func TestParse_VariableLiteralClash(t *testing.T) {
	doc := []byte(`
allowed_variables: [term]
forbidden_keywords: [eval]
literal_tokens: [term]
`)
	if _, err := Parse(doc); err == nil {
		t.Error("Expected error when a name is both a variable and a literal")
	}
}

// TestParse_MalformedYAML verifies YAML errors are reported
func TestParse_MalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("allowed_variables: [a\n")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
