package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrUsernameExists  = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrWrongPassword   = errors.New("wrong password")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")

	// Placement errors
	ErrInvalidCoordinate      = errors.New("coordinate outside the grid")
	ErrShipCoordinateMismatch = errors.New("ship dimensions do not match its coordinates")
	ErrCoordinateOccupied     = errors.New("field is occupied or touches another ship")
	ErrInvalidPlacement       = errors.New("invalid placement grid")

	// Match errors
	ErrMatchNotAccepted    = errors.New("challenge has not been accepted by both players")
	ErrPlacementAlreadySet = errors.New("placement already submitted")
	ErrMatchAlreadyStarted = errors.New("match already started")
	ErrGameNotStarted      = errors.New("game has not started")
	ErrGameAbandoned       = errors.New("game was abandoned")
	ErrNotMyTurn           = errors.New("not this player's turn")
	ErrInvalidTarget       = errors.New("shot target outside the grid")
	ErrAlreadyResolved     = errors.New("field was already shot at")
)
