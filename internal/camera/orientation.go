package camera

import "fmt"

// Facing is the direction a camera points relative to the screen.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
	FacingExternal
)

func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	case FacingExternal:
		return "external"
	default:
		return fmt.Sprintf("facing(%d)", int(f))
	}
}

// Rotation is the display rotation reported by the device, one state per
// 90° step.
type Rotation int

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Degrees returns the rotation in degrees.
func (r Rotation) Degrees() int { return int(r) * 90 }

// RotationFromDegrees maps 0/90/180/270 to a Rotation.
func RotationFromDegrees(deg int) (Rotation, error) {
	if deg < 0 || deg > 270 || deg%90 != 0 {
		return 0, fmt.Errorf("unsupported display rotation %d", deg)
	}
	return Rotation(deg / 90), nil
}

// orientations holds the JPEG orientation for each display rotation,
// indexed by Rotation.
var orientations = map[Facing][4]int{
	FacingFront: {270, 180, 90, 0},
	FacingBack:  {90, 0, 270, 180},
}

// JPEGOrientation returns the orientation to attach to a still-capture
// request for a camera with the given facing on a display rotated by r.
func JPEGOrientation(f Facing, r Rotation) (int, error) {
	table, ok := orientations[f]
	if !ok {
		return 0, fmt.Errorf("no orientation table for %s camera", f)
	}
	if r < Rotation0 || r > Rotation270 {
		return 0, fmt.Errorf("invalid rotation %d", int(r))
	}
	return table[r], nil
}
