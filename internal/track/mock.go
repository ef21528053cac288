package track

import (
	"gocv.io/x/gocv"
)

// MockFlow is a test implementation of the FlowBackend interface. It lets
// tests script the result of each Track call in sequence.
type MockFlow struct {
	results []mockFlowResult
	calls   []MockFlowCall
	err     error
}

type mockFlowResult struct {
	pts []gocv.Point2f
	ok  []bool
}

// MockFlowCall records the arguments of one Track invocation.
type MockFlowCall struct {
	Pts    []gocv.Point2f
	Seed   []gocv.Point2f
	Seeded bool
}

// NewMockFlow creates a new MockFlow instance.
func NewMockFlow() *MockFlow {
	return &MockFlow{}
}

// Push queues the result for the next Track call. Results are consumed in
// FIFO order; when the queue is empty every point is returned unchanged with
// success status.
func (m *MockFlow) Push(pts []gocv.Point2f, ok []bool) {
	m.results = append(m.results, mockFlowResult{pts: pts, ok: ok})
}

// SetError makes every subsequent Track call fail.
func (m *MockFlow) SetError(err error) {
	m.err = err
}

// Calls returns the recorded Track invocations.
func (m *MockFlow) Calls() []MockFlowCall {
	return m.calls
}

// Track returns the next queued result, or echoes the input points as
// all-successful when nothing is queued.
func (m *MockFlow) Track(prev, cur gocv.Mat, pts, seed []gocv.Point2f) ([]gocv.Point2f, []bool, error) {
	m.calls = append(m.calls, MockFlowCall{
		Pts:    append([]gocv.Point2f(nil), pts...),
		Seed:   append([]gocv.Point2f(nil), seed...),
		Seeded: seed != nil,
	})
	if m.err != nil {
		return nil, nil, m.err
	}
	if len(m.results) == 0 {
		out := append([]gocv.Point2f(nil), pts...)
		ok := make([]bool, len(pts))
		for i := range ok {
			ok[i] = true
		}
		return out, ok, nil
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r.pts, r.ok, nil
}

// Close is a no-op for the mock backend.
func (m *MockFlow) Close() error {
	return nil
}

// MockCorners is a test implementation of the CornerDetector interface.
type MockCorners struct {
	pts []gocv.Point2f
	err error

	// LastMaxCount records the budget of the most recent Detect call.
	LastMaxCount int
}

// NewMockCorners creates a new MockCorners instance.
func NewMockCorners() *MockCorners {
	return &MockCorners{}
}

// SetPoints sets the candidates returned by Detect.
func (m *MockCorners) SetPoints(pts []gocv.Point2f) {
	m.pts = pts
}

// SetError sets the error returned by Detect.
func (m *MockCorners) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured candidates, truncated to maxCount and
// filtered through the mask like a real detector.
func (m *MockCorners) Detect(img gocv.Mat, mask *Mask, maxCount int) ([]gocv.Point2f, error) {
	m.LastMaxCount = maxCount
	if m.err != nil {
		return nil, m.err
	}
	var out []gocv.Point2f
	for _, p := range m.pts {
		if len(out) >= maxCount {
			break
		}
		if mask != nil && !mask.Free(p.X, p.Y) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Close is a no-op for the mock detector.
func (m *MockCorners) Close() error {
	return nil
}

// MockVerifier is a test implementation of the GeometricVerifier interface.
type MockVerifier struct {
	keep []bool
	err  error

	// Called reports whether Verify ran.
	Called bool
}

// NewMockVerifier creates a new MockVerifier instance.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

// SetKeep sets the flags returned by Verify. When unset, all pairs are kept.
func (m *MockVerifier) SetKeep(keep []bool) {
	m.keep = keep
}

// SetError sets the error returned by Verify.
func (m *MockVerifier) SetError(err error) {
	m.err = err
}

// Verify returns the pre-configured keep flags.
func (m *MockVerifier) Verify(prev, cur []gocv.Point2f) ([]bool, error) {
	m.Called = true
	if m.err != nil {
		return nil, m.err
	}
	if m.keep == nil {
		keep := make([]bool, len(prev))
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}
	return m.keep, nil
}
