// Package capture provides the frame sources that feed the tracking
// pipeline: a live camera device and a recorded image sequence.
package capture

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrSourceClosed is returned when reading from a closed source.
var ErrSourceClosed = errors.New("capture: source is closed")

// Frame is one captured frame pair. Right is always a valid Mat; it is
// empty (and HasRight false) for monocular frames. The caller owns the Mats
// and must Close the frame.
type Frame struct {
	Timestamp float64
	Left      gocv.Mat
	Right     gocv.Mat
	HasRight  bool
}

// Close releases the frame's images.
func (f *Frame) Close() {
	f.Left.Close()
	f.Right.Close()
}

// Source defines the interface for frame source implementations.
type Source interface {
	// Next returns the next frame, or io.EOF when the source is exhausted.
	Next() (*Frame, error)

	// Close releases any resources held by the source.
	Close() error
}

// Device captures monocular frames from a video device, timestamped with the
// wall clock.
type Device struct {
	capture *gocv.VideoCapture
	start   time.Time
	open    bool
}

// OpenDevice opens the given capture device id.
func OpenDevice(deviceID int) (*Device, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, err
	}
	return &Device{
		capture: capture,
		start:   time.Now(),
		open:    true,
	}, nil
}

// Next reads one frame from the device.
func (d *Device) Next() (*Frame, error) {
	if !d.open {
		return nil, ErrSourceClosed
	}

	mat := gocv.NewMat()
	if ok := d.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("capture: failed to read frame from device")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("capture: captured frame is empty")
	}

	return &Frame{
		Timestamp: time.Since(d.start).Seconds(),
		Left:      mat,
		Right:     gocv.NewMat(),
	}, nil
}

// Close closes the device and releases resources.
func (d *Device) Close() error {
	if !d.open {
		return nil
	}
	d.open = false
	return d.capture.Close()
}
