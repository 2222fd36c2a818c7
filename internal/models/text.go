package models

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NormalizeTitle case-folds text and collapses whitespace. It is the identity
// used for exact-title dedup.
func NormalizeTitle(text string) string {
	return strings.Join(strings.Fields(folder.String(text)), " ")
}
