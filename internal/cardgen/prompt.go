package cardgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// Cards per subject and per child record.
const (
	baseCards     = 3
	cardsPerChild = 2
)

// CardCount is the number of cards requested for a subject with the given
// number of children.
func CardCount(children int) int {
	return baseCards + cardsPerChild*children
}

const promptHeader = `AUFGABE:
Du erzeugst Lernkarten für ein Spaced-Repetition-System. Antworte ausschließlich mit JSON der Form
{"cards":[{"question":"...","answer":"..."}]}, ohne weitere Felder und ohne Fließtext.

ANZAHL:
- Genau %d Karten.
- Genau %d Karten zu%s insgesamt.
- Für jeden %s genau %d Karten, die sich eindeutig auf diesen Punkt beziehen und unterschiedliche Blickwinkel haben.

QUALITÄT:
- Kurze, konkrete Fragen ohne Trickfragen und ohne Duplikate.
- Präzise Antworten, die sich nur aus dem Kontext ergeben; keine erfundenen Fakten.
- Sprache: %s.

KONTEXT:
`

// PersonPrompt builds the generation prompt for a person and their
// achievements.
func PersonPrompt(p domain.Person, achievements []domain.ChildRecord, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, CardCount(len(achievements)), baseCards, "r Person", "Erfolg", cardsPerChild, language)
	b.WriteString("TYP: PERSON\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Geburtsjahr: %d\n", p.Born)
	fmt.Fprintf(&b, "Sterbejahr: %s\n", optionalYear(p.Died))
	fmt.Fprintf(&b, "Biografie: %s\n", p.Bio)
	writeChildren(&b, "ERFOLGE", achievements)
	return strings.TrimSpace(b.String())
}

// EventPrompt builds the generation prompt for an event and its sub-events.
func EventPrompt(e domain.Event, subEvents []domain.ChildRecord, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, CardCount(len(subEvents)), baseCards, "m Hauptereignis", "Unterereignis", cardsPerChild, language)
	b.WriteString("TYP: EREIGNIS\n")
	fmt.Fprintf(&b, "Titel: %s\n", e.Title)
	span := strconv.Itoa(e.StartYear)
	if e.EndYear != nil {
		span += "–" + strconv.Itoa(*e.EndYear)
	}
	fmt.Fprintf(&b, "Zeitraum: %s\n", span)
	fmt.Fprintf(&b, "Beschreibung: %s\n", e.Summary)
	writeChildren(&b, "UNTEREREIGNISSE", subEvents)
	return strings.TrimSpace(b.String())
}

func writeChildren(b *strings.Builder, heading string, children []domain.ChildRecord) {
	fmt.Fprintf(b, "\n%s (in Reihenfolge, je %d Karten):\n", heading, cardsPerChild)
	for i, c := range children {
		fmt.Fprintf(b, "%d. %s", i+1, c.Title)
		if c.Year != nil {
			fmt.Fprintf(b, " (%d)", *c.Year)
		}
		if c.Description != "" {
			fmt.Fprintf(b, ": %s", c.Description)
		}
		b.WriteByte('\n')
	}
}

func optionalYear(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}
