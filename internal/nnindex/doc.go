// Package nnindex computes the Clark–Evans nearest-neighbour index for a set
// of features.
//
// Every feature is reduced to its centroid, each centroid is matched with its
// nearest other centroid, and the observed mean of those distances is
// compared with the mean expected for a random (Poisson) pattern of the same
// density over a study area:
//
//	density  = n / area
//	expected = 1 / (2 * sqrt(density))
//	se       = 0.26136 / sqrt(n * density)
//	R        = observed / expected
//	z        = (observed - expected) / se
//
// R below 1 indicates clustering, near 1 randomness and above 1 dispersion.
// The study area defaults to the bounding box of the input.
package nnindex
