// Package review schedules flashcard reviews with a fixed interval table.
//
// A correct answer moves a card exactly one level up (saturating at six),
// an incorrect answer resets it to new. The next due date is the level's
// day offset added in calendar days to the review time.
package review

import (
	"time"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// intervalDays is indexed by domain.Level.
var intervalDays = [...]int{
	domain.LevelNew:   1,
	domain.LevelOne:   3,
	domain.LevelTwo:   7,
	domain.LevelThree: 14,
	domain.LevelFour:  30,
	domain.LevelFive:  100,
	domain.LevelSix:   365,
}

// NextLevel returns the level after a correct answer at current.
// LevelSix saturates; an unknown level restarts at LevelNew.
func NextLevel(current domain.Level) domain.Level {
	if !current.Valid() {
		return domain.LevelNew
	}
	if current == domain.LevelSix {
		return domain.LevelSix
	}
	return current + 1
}

// OffsetDays returns the number of days until a card at level is due again.
func OffsetDays(level domain.Level) int {
	if !level.Valid() {
		return intervalDays[domain.LevelNew]
	}
	return intervalDays[level]
}

// NextDueDate adds the level's offset to now in calendar days, so the
// wall-clock time is kept across daylight saving changes in now's location.
func NextDueDate(level domain.Level, now time.Time) time.Time {
	return now.AddDate(0, 0, OffsetDays(level))
}

// Schedule computes the level and due date that follow a review.
func Schedule(current domain.Level, correct bool, now time.Time) (domain.Level, time.Time) {
	next := domain.LevelNew
	if correct {
		next = NextLevel(current)
	}
	return next, NextDueDate(next, now)
}

// Apply returns card with the schedule of a review at now written onto it.
func Apply(card domain.Card, correct bool, now time.Time) domain.Card {
	level, due := Schedule(card.Proficiency, correct, now)
	card.Proficiency = level
	card.DueAt = &due
	return card
}

// IsDue reports whether card may be reviewed at now. A card without a due
// date is always due.
func IsDue(card domain.Card, now time.Time) bool {
	return card.DueAt == nil || !card.DueAt.After(now)
}

// DueSet returns the cards that are due at now, in their input order.
func DueSet(cards []domain.Card, now time.Time) []domain.Card {
	due := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if IsDue(c, now) {
			due = append(due, c)
		}
	}
	return due
}
