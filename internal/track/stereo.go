package track

import "gocv.io/x/gocv"

// matchStereo finds, for each tracked point in the primary image, the
// corresponding point in the secondary image via a full pyramidal search.
//
// When flowBack is set the match is verified in the reverse direction: the
// found secondary point must track back to within flowBackMaxError of the
// original primary point, and must itself lie in the valid image interior.
//
// Stereo correspondence is additive: a failed match leaves the primary track
// untouched, so the matched id set is always a subset of the primary ids.
func matchStereo(backend FlowBackend, left, right gocv.Mat, leftPts []gocv.Point2f, flowBack bool, width, height int) ([]gocv.Point2f, []bool, error) {
	rightPts, ok, err := backend.Track(left, right, leftPts, nil)
	if err != nil {
		return nil, nil, err
	}

	if flowBack {
		backPts, backOK, err := backend.Track(right, left, rightPts, nil)
		if err != nil {
			return nil, nil, err
		}
		for i := range ok {
			ok[i] = ok[i] && backOK[i] &&
				inBorder(rightPts[i], width, height) &&
				distance(leftPts[i], backPts[i]) <= flowBackMaxError
		}
	}
	return rightPts, ok, nil
}
