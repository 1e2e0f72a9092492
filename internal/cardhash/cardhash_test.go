package cardhash

import (
	"testing"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.CardDraft
		want  string
	}{
		{
			name:  "trims and lowercases",
			draft: domain.CardDraft{Question: "  Wer gründete Rom? \r\n", Answer: "Romulus", Context: "Antike"},
			want:  "wer gründete rom?\nromulus\nantike",
		},
		{
			name:  "unifies line endings inside a field",
			draft: domain.CardDraft{Question: "Q", Answer: "eins\r\nzwei"},
			want:  "q\neins\nzwei\n",
		},
		{
			name:  "folds sharp s",
			draft: domain.CardDraft{Question: "STRASSE", Answer: "Straße"},
			want:  "strasse\nstrasse\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.draft); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHash(t *testing.T) {
	t.Run("known value", func(t *testing.T) {
		// sha256("q\na\nc")
		want := "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2"
		if got := Hash(domain.CardDraft{Question: "Q", Answer: "A", Context: "C"}); got != want {
			t.Errorf("Hash() = %s, want %s", got, want)
		}
	})

	t.Run("composed and decomposed umlauts match", func(t *testing.T) {
		composed := domain.CardDraft{Question: "Gründung"}
		decomposed := domain.CardDraft{Question: "Gru\u0308ndung"}
		if Hash(composed) != Hash(decomposed) {
			t.Error("expected NFC and NFD spellings to hash the same")
		}
	})

	t.Run("fields are separated", func(t *testing.T) {
		a := domain.CardDraft{Question: "ab", Answer: "c"}
		b := domain.CardDraft{Question: "a", Answer: "bc"}
		if Hash(a) == Hash(b) {
			t.Error("expected different splits of the same text to hash differently")
		}
	})
}
