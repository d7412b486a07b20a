package grid

import (
	"strings"

	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// PointType is the structural classification of a cell.
type PointType uint8

const (
	Inside PointType = iota
	Boundary
	Corner
	// Peninsula, Wall and Island are part of the block vocabulary but are
	// never produced by the grid layout.
	Peninsula
	Wall
	Island
)

var pointTypeNames = [...]string{
	Inside:    "Inside",
	Boundary:  "Boundary",
	Corner:    "Corner",
	Peninsula: "Peninsula",
	Wall:      "Wall",
	Island:    "Island",
}

func (t PointType) String() string {
	if int(t) < len(pointTypeNames) {
		return pointTypeNames[t]
	}
	return "Unknown"
}

// ParsePointType parses a point type name, ignoring case.
func ParsePointType(s string) (PointType, error) {
	for i, name := range pointTypeNames {
		if strings.EqualFold(s, name) {
			return PointType(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown point type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t PointType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PointType) UnmarshalText(b []byte) error {
	v, err := ParsePointType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
