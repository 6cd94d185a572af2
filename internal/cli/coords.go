package cli

import (
	"fmt"
	"strings"

	"github.com/pvidal/battlegrid/internal/model"
)

// ParseCoordinate parses board notation like "A1" or "b3" into a grid
// coordinate.
func ParseCoordinate(s string) (model.Coordinate, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return model.Coordinate{}, fmt.Errorf("invalid coordinate %q, expected e.g. A1", s)
	}
	c := model.Coordinate{
		X: int8(s[0] - 'A'),
		Y: int8(s[1] - '1'),
	}
	if !c.InBounds() {
		return model.Coordinate{}, fmt.Errorf("coordinate %q is off the board", s)
	}
	return c, nil
}
