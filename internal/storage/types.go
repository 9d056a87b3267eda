package storage

import "errors"

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// FrequentTermCap is the default bound on the frequent-term table. Entries
// beyond the cap are dropped after each batch update.
const FrequentTermCap = 100

// MinTermLength is the floor below which terms are ignored by both the
// frequency table and the learning path.
const MinTermLength = 2
