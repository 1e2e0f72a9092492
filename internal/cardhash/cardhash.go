// Package cardhash derives the content hash used to recognise a card across
// imports, edits and generation runs.
package cardhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// Normalize returns the canonical form of a draft: each field is brought to
// NFC, case folded, stripped of surrounding space and has its line endings
// unified; the fields are then joined by newlines.
func Normalize(d domain.CardDraft) string {
	fold := cases.Fold()
	field := func(s string) string {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = fold.String(norm.NFC.String(s))
		return strings.TrimSpace(s)
	}
	return field(d.Question) + "\n" + field(d.Answer) + "\n" + field(d.Context)
}

// Hash returns the hex SHA-256 of the normalized draft.
func Hash(d domain.CardDraft) string {
	sum := sha256.Sum256([]byte(Normalize(d)))
	return hex.EncodeToString(sum[:])
}
