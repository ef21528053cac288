package camera

import (
	"encoding/json"
	"fmt"
	"os"
)

// calibFile is the on-disk JSON document describing one camera.
type calibFile struct {
	ImageWidth  int     `json:"image_width"`
	ImageHeight int     `json:"image_height"`
	Fx          float64 `json:"fx"`
	Fy          float64 `json:"fy"`
	Cx          float64 `json:"cx"`
	Cy          float64 `json:"cy"`
	K1          float64 `json:"k1"`
	K2          float64 `json:"k2"`
	P1          float64 `json:"p1"`
	P2          float64 `json:"p2"`
}

// LoadFile reads a camera calibration from a JSON file and returns the
// corresponding pinhole model.
func LoadFile(path string) (*Pinhole, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var cf calibFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}

	if cf.ImageWidth <= 0 || cf.ImageHeight <= 0 {
		return nil, fmt.Errorf("calibration file %s: invalid image size %dx%d", path, cf.ImageWidth, cf.ImageHeight)
	}
	if cf.Fx <= 0 || cf.Fy <= 0 {
		return nil, fmt.Errorf("calibration file %s: invalid focal length", path)
	}

	return &Pinhole{
		Width:  cf.ImageWidth,
		Height: cf.ImageHeight,
		Fx:     cf.Fx,
		Fy:     cf.Fy,
		Cx:     cf.Cx,
		Cy:     cf.Cy,
		K1:     cf.K1,
		K2:     cf.K2,
		P1:     cf.P1,
		P2:     cf.P2,
	}, nil
}
