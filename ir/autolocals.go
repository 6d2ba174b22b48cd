package ir

import "sort"

// AutomaticLocalsPass packs a Function's AutomaticLocals into one
// contiguous, cache-line-friendly region, assigning each field's Offset.
// Fields are sorted by name first (Open Question: source declaration
// order is not preserved across repeated builds of the same text, so a
// stable, declaration-independent order is used instead) so two builds of
// the same kernel source always agree on layout even if the frontend's
// declaration-collection order ever changes.
func AutomaticLocalsPass(fn *Function) {
	if len(fn.AutomaticLocals) == 0 {
		fn.AutomaticLocalSize = 0
		return
	}
	sort.Slice(fn.AutomaticLocals, func(i, j int) bool {
		return fn.AutomaticLocals[i].Name < fn.AutomaticLocals[j].Name
	})
	var offset uint64
	const align = 8
	for i := range fn.AutomaticLocals {
		if offset%align != 0 {
			offset += align - offset%align
		}
		fn.AutomaticLocals[i].Offset = offset
		offset += fn.AutomaticLocals[i].Size
	}
	fn.AutomaticLocalSize = offset
}
