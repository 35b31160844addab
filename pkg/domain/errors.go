package domain

import "errors"

var (
	ErrResolutionNotFound = errors.New("collection reference not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrIOFailure          = errors.New("io failure")
	ErrDeliveryFailure    = errors.New("delivery failure")
)
