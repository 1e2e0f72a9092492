package timeline

import (
	"context"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// EraView is one era of the timeline with everything assigned to it.
type EraView struct {
	domain.Era
	Span    string       `json:"span"`
	Events  []EventView  `json:"events"`
	Persons []PersonView `json:"persons"`
}

type EventView struct {
	domain.Event
	Span    string `json:"span"`
	Excerpt string `json:"excerpt"`
}

type PersonView struct {
	domain.Person
	Span string `json:"span"`
}

// Timeline returns all eras in order, each with its events and persons.
func (s *Service) Timeline(ctx context.Context) ([]EraView, error) {
	eras, err := s.db.ListEras(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.db.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	persons, err := s.db.ListPersons(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]EraView, len(eras))
	index := make(map[string]*EraView, len(eras))
	for i, era := range eras {
		end := era.EndYear
		views[i] = EraView{
			Era:     era,
			Span:    FormatSpan(era.StartYear, &end),
			Events:  []EventView{},
			Persons: []PersonView{},
		}
		index[era.ID] = &views[i]
	}
	for _, ev := range events {
		if v, ok := index[ev.EraID]; ok {
			v.Events = append(v.Events, EventView{
				Event:   ev,
				Span:    FormatSpan(ev.StartYear, ev.EndYear),
				Excerpt: Truncate(ev.Summary, DefaultTruncate),
			})
		}
	}
	for _, p := range persons {
		if v, ok := index[p.EraID]; ok {
			v.Persons = append(v.Persons, PersonView{Person: p, Span: FormatSpan(p.Born, p.Died)})
		}
	}
	return views, nil
}
