package track

import "gocv.io/x/gocv"

const (
	// minSeededMatches is the minimum number of successes the fast seeded
	// search must produce before its result is trusted; below this the
	// propagator falls back to the full pyramidal search.
	minSeededMatches = 10

	// flowBackMaxError is the round-trip tolerance, in pixels, of the
	// forward-backward consistency check.
	flowBackMaxError = 0.5
)

// propagate maps each previous-frame position to its current-frame position
// through the flow backend.
//
// When seed is non-nil the fast single-level search is attempted first; if it
// yields fewer than minSeededMatches successes the result is discarded and
// the full multi-level search runs without the seed, which is costlier but
// robust to a poor motion prior.
//
// When flowBack is set, the found points are mapped back onto the previous
// image (single-level, seeded at the original positions) and a point survives
// only if both passes succeed and the round trip lands within
// flowBackMaxError of where it started. This rejects points that flow
// consistently forward but onto a similar-looking wrong location.
//
// Finally, any surviving point outside the valid image interior is
// invalidated. The returned positions and flags are index-aligned with
// prevPts.
func propagate(backend FlowBackend, prev, cur gocv.Mat, prevPts, seed []gocv.Point2f, flowBack bool, width, height int) ([]gocv.Point2f, []bool, error) {
	var (
		curPts []gocv.Point2f
		ok     []bool
		err    error
	)
	if seed != nil {
		curPts, ok, err = backend.Track(prev, cur, prevPts, seed)
		if err != nil {
			return nil, nil, err
		}
		succ := 0
		for _, s := range ok {
			if s {
				succ++
			}
		}
		if succ < minSeededMatches {
			curPts, ok, err = backend.Track(prev, cur, prevPts, nil)
		}
	} else {
		curPts, ok, err = backend.Track(prev, cur, prevPts, nil)
	}
	if err != nil {
		return nil, nil, err
	}

	if flowBack {
		backPts, backOK, err := backend.Track(cur, prev, curPts, prevPts)
		if err != nil {
			return nil, nil, err
		}
		for i := range ok {
			ok[i] = ok[i] && backOK[i] && distance(prevPts[i], backPts[i]) <= flowBackMaxError
		}
	}

	for i := range ok {
		if ok[i] && !inBorder(curPts[i], width, height) {
			ok[i] = false
		}
	}
	return curPts, ok, nil
}
