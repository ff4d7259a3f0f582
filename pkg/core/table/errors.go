package table

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKeyRow marks a data row seen before any record key was established
	ErrMissingKeyRow = errors.New("row has no record key")
	// ErrUnresolvedSlot marks a slot whose header keyword was not found on a page
	ErrUnresolvedSlot = errors.New("header slot unresolved")
	// ErrMissingWindowMarker is the parent of the two marker errors below
	ErrMissingWindowMarker = errors.New("window marker not found")

	ErrMissingTotalMarker  = fmt.Errorf("total %w", ErrMissingWindowMarker)
	ErrMissingFooterMarker = fmt.Errorf("footer %w", ErrMissingWindowMarker)
)
