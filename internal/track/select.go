package track

import "sort"

// selectByCoverage enforces approximately uniform spatial density of tracked
// points, giving longevity priority: tracks are walked in age-descending
// order (stable, so earlier tracks win ties), accepted if their pixel is
// still free, and each acceptance claims a minimum-separation disk.
//
// Older tracks are more likely to already be well-constrained downstream, so
// they win contention for spatial slots. This is a greedy approximation of
// maximum-coverage selection, not globally optimal.
//
// Returns the retained tracks in priority order and the residual mask, which
// the corner detector must respect so new points keep the same separation.
func selectByCoverage(tracks []*Track, width, height, minDist int) ([]*Track, *Mask) {
	order := make([]*Track, len(tracks))
	copy(order, tracks)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Age > order[j].Age
	})

	mask := NewMask(width, height, minDist)
	retained := order[:0]
	for _, tr := range order {
		if !mask.Free(tr.Pixel.X, tr.Pixel.Y) {
			continue
		}
		retained = append(retained, tr)
		mask.Claim(tr.Pixel.X, tr.Pixel.Y)
	}
	return retained, mask
}
