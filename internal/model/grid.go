package model

import "fmt"

// Grid dimensions. The battle grid is deliberately tiny; matches are meant
// to be quick lobby games.
const (
	GridWidth  = 3
	GridHeight = 3
	GridCells  = GridWidth * GridHeight
)

// Cell is the state of a single grid field.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellShip
	CellHit
	CellMiss
)

// Valid reports whether c is one of the defined cell states.
func (c Cell) Valid() bool {
	return c <= CellMiss
}

// Coordinate addresses a cell on the grid. X grows to the right, Y grows
// downward. Values are signed so out-of-range client input survives decoding
// and can be rejected explicitly.
type Coordinate struct {
	X int8
	Y int8
}

// InBounds reports whether the coordinate lies on the grid.
func (c Coordinate) InBounds() bool {
	return c.X >= 0 && c.X < GridWidth && c.Y >= 0 && c.Y < GridHeight
}

// Index returns the linear grid index (x + y*width). Only meaningful when
// the coordinate is in bounds.
func (c Coordinate) Index() int {
	return int(c.X) + int(c.Y)*GridWidth
}

// String renders the coordinate in board notation: letters for columns,
// digits for rows ("A1" is the top-left cell).
func (c Coordinate) String() string {
	return fmt.Sprintf("%c%c", 'A'+byte(c.X), '1'+byte(c.Y))
}

// Grid is one player's board, in row-major order.
type Grid [GridCells]Cell

// At returns the cell at the given coordinate. The coordinate must be in
// bounds.
func (g *Grid) At(c Coordinate) Cell {
	return g[c.Index()]
}

// Set writes the cell at the given coordinate. The coordinate must be in
// bounds.
func (g *Grid) Set(c Coordinate, cell Cell) {
	g[c.Index()] = cell
}

// ShipCells returns the number of cells still holding an unhit ship part.
func (g *Grid) ShipCells() int {
	n := 0
	for _, cell := range g {
		if cell == CellShip {
			n++
		}
	}
	return n
}
