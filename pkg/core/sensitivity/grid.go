package sensitivity

import (
	"fmt"
	"sort"

	"dcf_builder/pkg/core/model"
)

// GridOptions controls how sweep points are reshaped.
type GridOptions struct {
	Axis model.SweepAxis
	// DropBaseCase removes the column equal to the context's own growth rate
	// or exit multiple.
	DropBaseCase bool
}

// DefaultGridOptions drops the base-case column.
func DefaultGridOptions(axis model.SweepAxis) GridOptions {
	return GridOptions{Axis: axis, DropBaseCase: true}
}

// Cell is one grid entry. OK is false when no sweep point exists for the
// intersection; Value is then meaningless and must not be shown as zero.
type Cell struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// Grid has WACC rows and growth or multiple columns, both ascending.
type Grid struct {
	Axis    model.SweepAxis `json:"axis"`
	Columns []float64       `json:"columns"`
	Rows    []float64       `json:"rows"`
	Cells   [][]Cell        `json:"cells"`
}

// BuildGrid reshapes the points of one axis into a grid. ok is false when no
// point survives filtering.
func BuildGrid(results []model.SensitivityResult, vctx model.ValuationContext, opts GridOptions) (Grid, bool) {
	base := vctx.TerminalValue.Gordon.GrowthRate
	if opts.Axis == model.AxisExitMultiple {
		base = vctx.TerminalValue.ExitMultiple.Multiple
	}

	type key struct{ row, col float64 }
	values := map[key]float64{}
	cols := map[float64]bool{}
	rows := map[float64]bool{}

	for _, r := range results {
		if r.Axis != opts.Axis {
			continue
		}
		col := r.TerminalGrowth
		if opts.Axis == model.AxisExitMultiple {
			col = r.ExitMultiple
		}
		if opts.DropBaseCase && col == base {
			continue
		}
		values[key{r.WACC, col}] = r.EnterpriseValue
		cols[col] = true
		rows[r.WACC] = true
	}
	if len(values) == 0 {
		return Grid{}, false
	}

	g := Grid{Axis: opts.Axis, Columns: sortedKeys(cols), Rows: sortedKeys(rows)}
	g.Cells = make([][]Cell, len(g.Rows))
	for i, row := range g.Rows {
		g.Cells[i] = make([]Cell, len(g.Columns))
		for j, col := range g.Columns {
			if v, ok := values[key{row, col}]; ok {
				g.Cells[i][j] = Cell{Value: v, OK: true}
			}
		}
	}
	return g, true
}

// ColumnLabel formats a column header: "2.5%" for growth, "11.0x" for multiples.
func (g Grid) ColumnLabel(v float64) string {
	if g.Axis == model.AxisExitMultiple {
		return fmt.Sprintf("%.1fx", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

// RowLabel formats a WACC row header.
func (g Grid) RowLabel(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func sortedKeys(set map[float64]bool) []float64 {
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
