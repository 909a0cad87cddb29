package domain

import "errors"

var (
	ErrLocationRequired    = errors.New("location required")
	ErrHospitalRequired    = errors.New("hospital required")
	ErrDonatorRequired     = errors.New("donator required")
	ErrInvalidBloodType    = errors.New("invalid blood type")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidAllocationID = errors.New("invalid allocation id")
	ErrUnitNotFound        = errors.New("blood unit not found")
	ErrAllocationNotFound  = errors.New("allocation not found")
	ErrAllocationFailed    = errors.New("allocation failed")
	ErrCancelFailed        = errors.New("cancel failed")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrFieldNotUpdatable   = errors.New("field not updatable")
	ErrInconsistentState   = errors.New("inconsistent state across stores")
)
