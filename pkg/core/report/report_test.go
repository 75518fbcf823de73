package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/sensitivity"
	"dcf_builder/pkg/core/valuation"
)

func sampleInput(t *testing.T) Input {
	t.Helper()
	state := model.DefaultState(2025)
	out := valuation.ComputeValuation(state.Forecast, state.Context, valuation.ComputeOptions{
		Now: func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	results, err := sensitivity.Run(context.Background(), state.Forecast, state.Context)
	if err != nil {
		t.Fatalf("sensitivity failed: %v", err)
	}
	grid, _ := sensitivity.BuildGrid(results, state.Context, sensitivity.DefaultGridOptions(model.AxisGrowth))
	return Input{
		Metadata:   state.Context.Metadata,
		Valuation:  out,
		Grid:       &grid,
		MonteCarlo: &model.MonteCarloResult{Iterations: 10, Mean: 1000, Median: 990, P10: 800, P90: 1200, StdDev: 120},
	}
}

func TestBuildRendersCashflowTable(t *testing.T) {
	in := sampleInput(t)
	rep, err := Build(in)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rep.HTML))
	if err != nil {
		t.Fatalf("parse html failed: %v", err)
	}

	if got := doc.Find("h1").First().Text(); got != "Example Co. (EXCO)" {
		t.Errorf("Expected title 'Example Co. (EXCO)', got %q", got)
	}

	var cashflowTable *goquery.Selection
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		if h.Text() == "Free cash flow" {
			cashflowTable = h.NextFiltered("table")
		}
	})
	if cashflowTable == nil || cashflowTable.Length() == 0 {
		t.Fatal("Expected a table after the 'Free cash flow' heading")
	}
	rows := cashflowTable.Find("tbody tr")
	if rows.Length() != len(in.Valuation.Cashflows) {
		t.Errorf("Expected %d cashflow rows, got %d", len(in.Valuation.Cashflows), rows.Length())
	}
	if first := rows.First().Find("td").First().Text(); first != "FY2025" {
		t.Errorf("Expected first period FY2025, got %q", first)
	}
	if cells := rows.First().Find("td").Length(); cells != 9 {
		t.Errorf("Expected 9 columns, got %d", cells)
	}
}

func TestMarkdownSections(t *testing.T) {
	in := sampleInput(t)
	md := Markdown(in)

	for _, want := range []string{
		"## Summary",
		"## Terminal value",
		"## Enterprise value bridge",
		"| PV of Terminal Value |",
		"## Sum of the parts",
		"## Sensitivity",
		"| 9.0% |",
		"## Monte Carlo",
		"- Iterations: 10",
		"$1,000.0M",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
	// no peers configured
	if strings.Contains(md, "## Trading comps") {
		t.Error("Expected no comps section without peers")
	}
}

func TestMarkdownWarningsAndCurrency(t *testing.T) {
	md := Markdown(Input{
		Metadata: model.Metadata{Currency: "EUR"},
		Valuation: model.ValuationOutputs{
			EnterpriseValue: 1500,
			Validations:     []string{"Terminal growth exceeds sanity cap"},
		},
	})
	if !strings.HasPrefix(md, "# Valuation\n") {
		t.Errorf("Expected default title, got %q", strings.SplitN(md, "\n", 2)[0])
	}
	if !strings.Contains(md, "€1,500.0M") {
		t.Errorf("Expected euro formatting in %q", md)
	}
	if !strings.Contains(md, "- Terminal growth exceeds sanity cap") {
		t.Error("Expected warnings list")
	}
}

func TestCurrencySymbol(t *testing.T) {
	cases := map[string]string{"usd": "$", "GBP": "£", "": "$", "CHF": "CHF "}
	for code, want := range cases {
		if got := CurrencySymbol(code); got != want {
			t.Errorf("Expected %q for %q, got %q", want, code, got)
		}
	}
}
