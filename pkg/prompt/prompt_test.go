package prompt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/formulaspark/formulaspark/pkg/models"
)

func TestModeSelection(t *testing.T) {
	tagged := Input{
		SheetName:  "Sales",
		UserPrompt: "sum @Revenue",
		Headers:    []string{"Region", "Revenue"},
		Tagged: map[string]models.HeaderRef{
			"@Revenue": {Header: "Revenue", Column: "B", Range: "B:B"},
		},
	}
	if got := tagged.Mode(); got != "tagged" {
		t.Errorf("expected tagged mode, got %s", got)
	}

	headersOnly := Input{SheetName: "Sales", UserPrompt: "sum revenue", Headers: []string{"Region", "Revenue"}}
	if got := headersOnly.Mode(); got != "context" {
		t.Errorf("expected context mode, got %s", got)
	}

	bare := Input{SheetName: "Sales", UserPrompt: "sum A1 and B1"}
	if got := bare.Mode(); got != "simple" {
		t.Errorf("expected simple mode, got %s", got)
	}
}

func TestBuildSimple(t *testing.T) {
	p := Build(Input{SheetName: "Sheet1", UserPrompt: "sum A1 and B1"})
	if !strings.Contains(p, "'Sheet1'") {
		t.Error("prompt should name the sheet")
	}
	if !strings.Contains(p, `"sum A1 and B1"`) {
		t.Error("prompt should quote the user request")
	}
	if strings.Contains(p, "Tagged Headers") {
		t.Error("simple prompt should not mention tagged headers")
	}
}

func TestBuildContextQuotesHeadersInOrder(t *testing.T) {
	p := Build(Input{
		SheetName:  "Q1",
		UserPrompt: "average sales",
		Headers:    []string{"Date", "Product Name", "Sales"},
	})
	if !strings.Contains(p, "'Date', 'Product Name', 'Sales'") {
		t.Errorf("headers not rendered in order, prompt:\n%s", p)
	}
}

func TestBuildTagged(t *testing.T) {
	in := Input{
		SheetName:  "Claims",
		UserPrompt: "sum @Payable for 2024",
		Tagged: map[string]models.HeaderRef{
			"@Payable":     {Header: "Payable Amount", Column: "AG", Range: "AG:AG"},
			"@PaymentDate": {Header: "Payment Date", Column: "K", Range: "K:K"},
		},
		DateColumns: map[string]string{"Payment Date": "DATE"},
	}
	p := Build(in)

	if !strings.Contains(p, "- @Payable (Payable Amount) = Column AG (AG:AG)") {
		t.Errorf("missing tagged reference line, prompt:\n%s", p)
	}
	if !strings.Contains(p, "**Date Columns Detected:** Payment Date (DATE)") {
		t.Errorf("missing date column note, prompt:\n%s", p)
	}
	// Sorted tag order: @Payable before @PaymentDate.
	if strings.Index(p, "@Payable (") > strings.Index(p, "@PaymentDate (") {
		t.Error("tagged references not in sorted order")
	}
}

func TestBuildTaggedPlaceholders(t *testing.T) {
	p := Build(Input{
		SheetName:  "S",
		UserPrompt: "count rows",
		Tagged: map[string]models.HeaderRef{
			"@Broken": {},
		},
	})
	if !strings.Contains(p, "- @Broken (Unknown) = Column ? (?:?)") {
		t.Errorf("malformed entry not rendered with placeholders, prompt:\n%s", p)
	}
}

func TestBuildDeterministic(t *testing.T) {
	in := Input{
		SheetName:  "Sales",
		UserPrompt: "sum @A and @B",
		Tagged: map[string]models.HeaderRef{
			"@B": {Header: "Beta", Column: "B", Range: "B:B"},
			"@A": {Header: "Alpha", Column: "A", Range: "A:A"},
			"@C": {Header: "Gamma", Column: "C", Range: "C:C"},
		},
		DateColumns: map[string]string{"Alpha": "DATE", "Gamma": "DATE"},
	}
	first := Build(in)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, Build(in)); diff != "" {
			t.Fatalf("prompt not deterministic (-first +rebuild):\n%s", diff)
		}
	}
}
