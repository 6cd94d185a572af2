// Package board validates ship placement on the battle grid: coordinate
// bounds, ship footprints, and the rule that ships may never touch.
package board

import (
	"github.com/pvidal/battlegrid/internal/model"
)

// Ship describes one ship by the two opposite corners of its footprint and
// the declared dimensions the player chose it from.
type Ship struct {
	Start  model.Coordinate
	End    model.Coordinate
	Width  uint8
	Height uint8
}

// ValidateCoordinate checks that a coordinate lies on the grid.
func ValidateCoordinate(c model.Coordinate) error {
	if !c.InBounds() {
		return model.ErrInvalidCoordinate
	}
	return nil
}

// span returns the inclusive extent of the ship on each axis:
// |start-end| + 1.
func (s Ship) span() (w, h uint8) {
	dx := int(s.Start.X) - int(s.End.X)
	if dx < 0 {
		dx = -dx
	}
	dy := int(s.Start.Y) - int(s.End.Y)
	if dy < 0 {
		dy = -dy
	}
	return uint8(dx + 1), uint8(dy + 1)
}

// normalized returns the ship with Start at the top-left corner of its
// footprint so the cells can be iterated start..end on both axes.
func (s Ship) normalized() Ship {
	if s.Start.X > s.End.X {
		s.Start.X, s.End.X = s.End.X, s.Start.X
	}
	if s.Start.Y > s.End.Y {
		s.Start.Y, s.End.Y = s.End.Y, s.Start.Y
	}
	return s
}

// ValidateShip checks that both corners are on the grid and that the
// footprint between them matches the declared dimensions, in either
// orientation (a 2x1 ship may be laid as 1x2).
func ValidateShip(s Ship) error {
	if err := ValidateCoordinate(s.Start); err != nil {
		return err
	}
	if err := ValidateCoordinate(s.End); err != nil {
		return err
	}
	w, h := s.span()
	if w == s.Width && h == s.Height {
		return nil
	}
	if w == s.Height && h == s.Width {
		return nil
	}
	return model.ErrShipCoordinateMismatch
}

// ValidatePlacement checks that every cell of the ship, and every
// orthogonally adjacent cell, is empty. Diagonal neighbours are explicitly
// allowed to hold other ships; only the cross-shaped neighbourhood
//
//	. X .
//	X X X
//	. X .
//
// around each ship cell must be free.
func ValidatePlacement(g *model.Grid, s Ship) error {
	s = s.normalized()
	for x := s.Start.X; x <= s.End.X; x++ {
		for y := s.Start.Y; y <= s.End.Y; y++ {
			for i := x - 1; i <= x+1; i++ {
				for j := y - 1; j <= y+1; j++ {
					// Skip the diagonal corners of the neighbourhood.
					if i != x && j != y {
						continue
					}
					c := model.Coordinate{X: i, Y: j}
					if !c.InBounds() {
						continue
					}
					// Cells of this ship itself are allowed to overlap the
					// neighbourhood of earlier cells.
					if i >= s.Start.X && i <= s.End.X && j >= s.Start.Y && j <= s.End.Y {
						continue
					}
					if g.At(c) != model.CellEmpty {
						return model.ErrCoordinateOccupied
					}
				}
			}
			if g.At(model.Coordinate{X: x, Y: y}) != model.CellEmpty {
				return model.ErrCoordinateOccupied
			}
		}
	}
	return nil
}

// PlaceShip validates the ship against the grid and writes its cells.
func PlaceShip(g *model.Grid, s Ship) error {
	if err := ValidateShip(s); err != nil {
		return err
	}
	if err := ValidatePlacement(g, s); err != nil {
		return err
	}
	n := s.normalized()
	for x := n.Start.X; x <= n.End.X; x++ {
		for y := n.Start.Y; y <= n.End.Y; y++ {
			g.Set(model.Coordinate{X: x, Y: y}, model.CellShip)
		}
	}
	return nil
}

// ValidateSubmittedGrid checks a placement grid received from a client: it
// may contain only empty and ship cells and must hold at least one ship
// cell, otherwise the match could never be won.
func ValidateSubmittedGrid(g model.Grid) error {
	ships := 0
	for _, cell := range g {
		switch cell {
		case model.CellEmpty:
		case model.CellShip:
			ships++
		default:
			return model.ErrInvalidPlacement
		}
	}
	if ships == 0 {
		return model.ErrInvalidPlacement
	}
	return nil
}
