package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// Image extensions accepted by the directory source.
var imageExts = map[string]bool{
	".png": true,
	".jpg": true,
	".pgm": true,
	".bmp": true,
}

// Dir replays a recorded image sequence from a directory, in lexical
// filename order, at a fixed frame rate. When a right directory is given,
// right images are matched to left images by filename; frames without a
// match are emitted monocular.
type Dir struct {
	leftFiles []string
	rightDir  string
	fps       float64
	index     int
}

// OpenDir creates a directory source. rightDir may be empty for a monocular
// sequence. fps values of zero or less default to 20.
func OpenDir(leftDir, rightDir string, fps float64) (*Dir, error) {
	entries, err := os.ReadDir(leftDir)
	if err != nil {
		return nil, fmt.Errorf("capture: failed to read image directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(leftDir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("capture: no images in %s", leftDir)
	}
	sort.Strings(files)

	if fps <= 0 {
		fps = 20
	}
	return &Dir{leftFiles: files, rightDir: rightDir, fps: fps}, nil
}

// Next returns the next frame of the sequence, or io.EOF at the end.
func (d *Dir) Next() (*Frame, error) {
	if d.index >= len(d.leftFiles) {
		return nil, io.EOF
	}
	path := d.leftFiles[d.index]

	left := gocv.IMRead(path, gocv.IMReadGrayScale)
	if left.Empty() {
		return nil, fmt.Errorf("capture: failed to read image %s", path)
	}

	frame := &Frame{
		Timestamp: float64(d.index) / d.fps,
		Left:      left,
		Right:     gocv.NewMat(),
	}

	if d.rightDir != "" {
		rightPath := filepath.Join(d.rightDir, filepath.Base(path))
		if _, err := os.Stat(rightPath); err == nil {
			right := gocv.IMRead(rightPath, gocv.IMReadGrayScale)
			if !right.Empty() {
				frame.Right.Close()
				frame.Right = right
				frame.HasRight = true
			}
		}
	}

	d.index++
	return frame, nil
}

// Close is a no-op for the directory source.
func (d *Dir) Close() error {
	return nil
}
