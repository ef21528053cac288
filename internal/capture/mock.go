package capture

import (
	"io"

	"gocv.io/x/gocv"
)

// MockSource is a test implementation of the Source interface that replays a
// queued set of frames and then reports io.EOF.
type MockSource struct {
	frames []*Frame
	err    error
	closed bool
}

// NewMockSource creates a new MockSource instance.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Push queues a monocular frame with the given timestamp. The source owns
// the image until the frame is handed out.
func (m *MockSource) Push(timestamp float64, left gocv.Mat) {
	m.frames = append(m.frames, &Frame{
		Timestamp: timestamp,
		Left:      left,
		Right:     gocv.NewMat(),
	})
}

// SetError makes every subsequent Next call fail.
func (m *MockSource) SetError(err error) {
	m.err = err
}

// Next returns the next queued frame, or io.EOF when the queue is drained.
func (m *MockSource) Next() (*Frame, error) {
	if m.closed {
		return nil, ErrSourceClosed
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return nil, io.EOF
	}
	f := m.frames[0]
	m.frames = m.frames[1:]
	return f, nil
}

// Close releases any frames still queued.
func (m *MockSource) Close() error {
	for _, f := range m.frames {
		f.Close()
	}
	m.frames = nil
	m.closed = true
	return nil
}
