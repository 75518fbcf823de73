package valuation

import "dcf_builder/pkg/core/model"

// ComputeSOTP values each segment at EBITDA × its own exit multiple (or the
// context's default) and weights it by share of the total. A non-positive
// total is reported as zero with zero weights. Returns nil without segments.
func ComputeSOTP(ctx model.ValuationContext) *model.SOTPOutput {
	if len(ctx.Segments) == 0 {
		return nil
	}

	segments := make([]model.SOTPSegmentValue, len(ctx.Segments))
	total := 0.0
	for i, seg := range ctx.Segments {
		multiple := ctx.TerminalValue.ExitMultiple.Multiple
		if seg.ExitMultiple != nil {
			multiple = *seg.ExitMultiple
		}
		value := seg.Revenue * (seg.EBITDAMargin / 100) * multiple
		segments[i] = model.SOTPSegmentValue{Segment: seg, Value: value}
		total += value
	}

	if total <= 0 {
		return &model.SOTPOutput{TotalValue: 0, Segments: segments}
	}
	for i := range segments {
		segments[i].Weight = segments[i].Value / total
	}
	return &model.SOTPOutput{TotalValue: total, Segments: segments}
}
