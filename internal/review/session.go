package review

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// ErrNotInSession is returned when a card is not part of the session pool.
var ErrNotInSession = errors.New("review: card not in session")

// Session is one pass over the due cards. Every card is answered at most
// once; answered or removed cards leave the pool.
//
// A Session is not safe for concurrent use.
type Session struct {
	pool []domain.Card
	rng  *rand.Rand
}

// NewSession builds a session from the cards that are due at now. A nil rng
// falls back to the global source.
func NewSession(cards []domain.Card, now time.Time, rng *rand.Rand) *Session {
	return &Session{pool: DueSet(cards, now), rng: rng}
}

// Len returns the number of cards left in the pool.
func (s *Session) Len() int {
	return len(s.pool)
}

// Next returns a uniformly random card from the pool without removing it.
func (s *Session) Next() (domain.Card, bool) {
	if len(s.pool) == 0 {
		return domain.Card{}, false
	}
	var i int
	if s.rng != nil {
		i = s.rng.IntN(len(s.pool))
	} else {
		i = rand.IntN(len(s.pool))
	}
	return s.pool[i], true
}

// Answer schedules the card with the given id, removes it from the pool and
// returns the updated card for the caller to persist.
func (s *Session) Answer(id string, correct bool, now time.Time) (domain.Card, error) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Card{}, ErrNotInSession
	}
	card := Apply(s.pool[i], correct, now)
	s.removeAt(i)
	return card, nil
}

// Remove drops the card with the given id from the pool, for example after
// it was deleted. It reports whether the card was present.
func (s *Session) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.removeAt(i)
	return true
}

// Replace swaps in an edited version of a pooled card.
func (s *Session) Replace(card domain.Card) bool {
	i := s.indexOf(card.ID)
	if i < 0 {
		return false
	}
	s.pool[i] = card
	return true
}

func (s *Session) indexOf(id string) int {
	for i, c := range s.pool {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) removeAt(i int) {
	last := len(s.pool) - 1
	s.pool[i] = s.pool[last]
	s.pool[last] = domain.Card{}
	s.pool = s.pool[:last]
}
