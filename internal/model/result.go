package model

import "time"

// Side identifies one of the two participants of a match. The challenger is
// always the first side.
type Side uint8

const (
	SideFirst Side = iota
	SideSecond
)

func (s Side) String() string {
	if s == SideFirst {
		return "first"
	}
	return "second"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideFirst {
		return SideSecond
	}
	return SideFirst
}

// GameResult is the persisted record of a finished match. Appended to
// durable storage once, never mutated.
type GameResult struct {
	FirstUsername  string
	SecondUsername string
	Winner         Side
	FirstGrid      Grid
	SecondGrid     Grid
	FinishedAt     time.Time
}
