package nnindex

import "github.com/rotisserie/eris"

var (
	// ErrInvalidInput is returned when the dataset cannot produce a
	// nearest-neighbour distance, e.g. it holds fewer than two features.
	ErrInvalidInput = eris.New("nnindex: invalid input")

	// ErrDegenerateStudyArea is returned when the resolved study area has
	// zero, negative or non-finite area.
	ErrDegenerateStudyArea = eris.New("nnindex: degenerate study area")

	// ErrMultiPartStudyArea is returned when the study area is a
	// MultiPolygon with more than one member and multi-part areas have not
	// been allowed.
	ErrMultiPartStudyArea = eris.New("nnindex: multi-part study area")
)
