package mem

// resolveFree appends to dst the free ranges left in each entry after
// subtracting every slab, and returns the extended slice.
//
// Each entry is resolved on its own: candidates start as the entry's range
// and are refined slab by slab. Candidates from different entries, or from
// different splits of the same entry, are never merged. Entries rejected by
// keep (when non-nil) contribute nothing.
func resolveFree(dst []Range, entries []TableEntry, slabs []Slab, align uintptr, keep func(TableEntry) bool) []Range {
	for _, e := range entries {
		if keep != nil && !keep(e) {
			continue
		}
		start := len(dst)
		dst = append(dst, e.Range)

		for _, s := range slabs {
			// Refined candidates are appended past n, then slid back over the
			// candidates they replace.
			n := len(dst)
			for i := start; i < n; i++ {
				c := dst[i]
				head, hasHead, tail, hasTail, keepC := subtract(c, s.Coverage, align)
				if keepC {
					dst = append(dst, c)
					continue
				}
				if hasHead {
					dst = append(dst, head)
				}
				if hasTail {
					dst = append(dst, tail)
				}
			}
			m := copy(dst[start:], dst[n:])
			dst = dst[:start+m]
			if m == 0 {
				break
			}
		}
	}
	return dst
}

// subtract removes slab from candidate c.
//
// keep is true when slab does not touch c. Otherwise the surviving head and
// tail pieces are returned: the head ends just before the slab's start rounded
// down to align, and the tail begins at the first aligned address after the
// slab. A piece is dropped when trimming leaves it empty.
func subtract(c, slab Range, align uintptr) (head Range, hasHead bool, tail Range, hasTail bool, keep bool) {
	if slab.ContainsRange(c) {
		return Range{}, false, Range{}, false, false
	}
	if !slab.OverlapsRange(c) {
		return Range{}, false, Range{}, false, true
	}

	if slab.First > c.First {
		end := AlignDown(align, slab.First)
		if end > c.First {
			head, hasHead = Range{First: c.First, Last: end - 1}, true
		}
	}

	if slab.Last < c.Last {
		begin := AlignUp(align, slab.Last+1)
		// begin <= slab.Last means the round-up wrapped.
		if begin > slab.Last && begin <= c.Last {
			tail, hasTail = Range{First: begin, Last: c.Last}, true
		}
	}
	return head, hasHead, tail, hasTail, false
}

// firstFit returns the first range in free that holds size addresses,
// truncated to exactly size.
func firstFit(free []Range, size uintptr) (Range, bool) {
	for _, r := range free {
		if r.Len() >= size || (r.Len() == 0 && r.Valid()) {
			return RangeOf(r.First, size), true
		}
	}
	return Range{}, false
}
