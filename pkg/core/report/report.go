// Package report renders a valuation run as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/leekchan/accounting"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/money"
	"dcf_builder/pkg/core/sensitivity"
)

// Input collects what goes into a report. Grid and MonteCarlo are optional.
type Input struct {
	Metadata   model.Metadata
	Valuation  model.ValuationOutputs
	Grid       *sensitivity.Grid
	MonteCarlo *model.MonteCarloResult
}

// Report is a rendered valuation summary.
type Report struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// CurrencySymbol maps an ISO currency code to its display symbol.
func CurrencySymbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	if code == "" {
		return "$"
	}
	return code + " "
}

// Build renders the Markdown summary and its HTML form.
func Build(in Input) (Report, error) {
	md := Markdown(in)
	html, err := ToHTML(md)
	if err != nil {
		return Report{}, err
	}
	return Report{Markdown: md, HTML: html}, nil
}

// Markdown renders the summary: headline values, cash flows, terminal values,
// EV bridge, then the optional comps, SOTP, grid and simulation blocks.
func Markdown(in Input) string {
	sym := CurrencySymbol(in.Metadata.Currency)
	m := func(v float64) string { return money.FormatMillions(v, sym) }
	pct := func(v float64) string { return fmt.Sprintf("%.2f%%", v) }
	v := in.Valuation

	var b strings.Builder

	title := in.Metadata.CompanyName
	if title == "" {
		title = "Valuation"
	}
	if in.Metadata.Ticker != "" {
		title += " (" + in.Metadata.Ticker + ")"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	// 1. Headline
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Enterprise value | %s |\n", m(v.EnterpriseValue))
	fmt.Fprintf(&b, "| Equity value | %s |\n", m(v.EquityValue))
	perShare := accounting.Accounting{Symbol: sym, Precision: 2}
	fmt.Fprintf(&b, "| Per share | %s |\n", perShare.FormatMoney(v.PerShare))
	fmt.Fprintf(&b, "| Discount rate | %s |\n", pct(v.DiscountRate))
	fmt.Fprintf(&b, "| WACC | %s |\n", pct(v.WACCBreakdown.WACC))
	b.WriteString("\n")

	// 2. Cash flows
	b.WriteString("## Free cash flow\n\n")
	b.WriteString("| Period | Revenue | EBIT | NOPAT | D&A | Capex | ΔNWC | Tax paid | FCF |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, cf := range v.Cashflows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			cf.Period.Label, m(cf.Period.Revenue), m(cf.EBIT), m(cf.NOPAT), m(cf.Depreciation),
			m(cf.Capex), m(cf.ChangeInNetWorkingCapital), m(cf.TaxPaid), m(cf.FreeCashFlow))
	}
	b.WriteString("\n")

	// 3. Terminal values
	if len(v.TerminalValues) > 0 {
		b.WriteString("## Terminal value\n\n")
		b.WriteString("| Method | Value | Implied multiple |\n|---|---:|---:|\n")
		for _, tv := range v.TerminalValues {
			implied := "n/a"
			if tv.ImpliedMultiple != nil {
				implied = fmt.Sprintf("%.1fx", *tv.ImpliedMultiple)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", tv.Method, m(tv.Value), implied)
		}
		b.WriteString("\n")
	}

	// 4. Bridge
	b.WriteString("## Enterprise value bridge\n\n")
	b.WriteString("| Item | Value | Share of EV |\n|---|---:|---:|\n")
	for _, item := range v.EVBridge {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", item.Label, m(item.Value), pct(item.Impact*100))
	}
	b.WriteString("\n")

	if c := v.CompsCheck; c != nil {
		b.WriteString("## Trading comps\n\n")
		if c.MedianEVEBITDA != nil {
			fmt.Fprintf(&b, "- Median EV/EBITDA: %.1fx\n", *c.MedianEVEBITDA)
		}
		if c.MedianEVSales != nil {
			fmt.Fprintf(&b, "- Median EV/Sales: %.1fx\n", *c.MedianEVSales)
		}
		if c.ImpliedPremiumVsMedian != nil {
			fmt.Fprintf(&b, "- Premium vs median: %s\n", pct(*c.ImpliedPremiumVsMedian*100))
		}
		b.WriteString("\n")
	}

	if s := v.SOTP; s != nil && len(s.Segments) > 0 {
		b.WriteString("## Sum of the parts\n\n")
		b.WriteString("| Segment | Value | Weight |\n|---|---:|---:|\n")
		for _, seg := range s.Segments {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", seg.Segment.Label, m(seg.Value), pct(seg.Weight*100))
		}
		fmt.Fprintf(&b, "| **Total** | **%s** | |\n\n", m(s.TotalValue))
	}

	if g := in.Grid; g != nil && len(g.Rows) > 0 {
		b.WriteString("## Sensitivity\n\n")
		b.WriteString("| WACC |")
		for _, c := range g.Columns {
			fmt.Fprintf(&b, " %s |", g.ColumnLabel(c))
		}
		b.WriteString("\n|---|")
		b.WriteString(strings.Repeat("---:|", len(g.Columns)))
		b.WriteString("\n")
		for i, r := range g.Rows {
			fmt.Fprintf(&b, "| %s |", g.RowLabel(r))
			for _, cell := range g.Cells[i] {
				if cell.OK {
					fmt.Fprintf(&b, " %s |", m(cell.Value))
				} else {
					b.WriteString(" - |")
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if mc := in.MonteCarlo; mc != nil {
		b.WriteString("## Monte Carlo\n\n")
		fmt.Fprintf(&b, "- Iterations: %d\n", mc.Iterations)
		fmt.Fprintf(&b, "- Mean: %s (std dev %s)\n", m(mc.Mean), m(mc.StdDev))
		fmt.Fprintf(&b, "- P10 / median / P90: %s / %s / %s\n\n", m(mc.P10), m(mc.Median), m(mc.P90))
	}

	if len(v.Validations) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range v.Validations {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if v.RunMetadata.RunID != "" {
		fmt.Fprintf(&b, "_Run %s at %s_\n", v.RunMetadata.RunID, v.RunMetadata.TimestampISO)
	}
	return b.String()
}

// ToHTML converts Markdown to HTML with GitHub-flavoured tables.
func ToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
