// Package data holds the Earth orientation data excerpts packaged with the
// library, backing the default-load operations when no downloaded product
// is available.
package data

import _ "embed"

// C04 is the packaged IERS C04 long-term product excerpt.
//
//go:embed c04.txt
var C04 []byte

// FinalsAB is the packaged IERS finals2000A product excerpt, carrying both
// Bulletin A and Bulletin B columns.
//
//go:embed finals_ab.txt
var FinalsAB []byte
