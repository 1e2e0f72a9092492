package domain

import (
	"strings"
	"time"
)

// Era is a named span of years on the timeline.
type Era struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	StartYear   int       `db:"start_year" json:"start_year"`
	EndYear     int       `db:"end_year" json:"end_year"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether year lies within the era, bounds included.
func (e Era) Covers(year int) bool {
	return e.StartYear <= year && year <= e.EndYear
}

// Event is a historical event belonging to an era.
type Event struct {
	ID        string    `db:"id" json:"id"`
	EraID     string    `db:"era_id" json:"era_id"`
	Title     string    `db:"title" json:"title"`
	Summary   string    `db:"summary" json:"summary"`
	StartYear int       `db:"start_year" json:"start_year"`
	EndYear   *int      `db:"end_year" json:"end_year"`
	Image     string    `db:"image" json:"image,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Person is a historical person belonging to an era.
type Person struct {
	ID        string    `db:"id" json:"id"`
	EraID     string    `db:"era_id" json:"era_id"`
	Name      string    `db:"name" json:"name"`
	Bio       string    `db:"bio" json:"bio"`
	Born      int       `db:"born" json:"born"`
	Died      *int      `db:"died" json:"died"`
	Image     string    `db:"image" json:"image,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChildRecord is a stored record owned by exactly one parent: a sub-event
// of an event or an achievement of a person.
type ChildRecord struct {
	ID          string `db:"id" json:"id"`
	ParentID    string `db:"parent_id" json:"parent_id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Year        *int   `db:"year" json:"year"`
}

// ChildContent is one submitted row of a child list. ID is only consulted
// when children are correlated by identity.
type ChildContent struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title" validate:"max=300"`
	Description string `json:"description" validate:"max=5000"`
	Year        *int   `json:"year"`
}

// Blank reports whether the row has no title and must be ignored.
func (c ChildContent) Blank() bool {
	return strings.TrimSpace(c.Title) == ""
}

// Normalized returns the content with a trimmed title.
func (c ChildContent) Normalized() ChildContent {
	c.Title = strings.TrimSpace(c.Title)
	return c
}
