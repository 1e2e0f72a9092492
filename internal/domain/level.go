package domain

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"fmt"
)

// Level is the proficiency of a card: the number of consecutive correct
// reviews, capped at LevelSix. The zero value is LevelNew.
type Level int

const (
	LevelNew Level = iota
	LevelOne
	LevelTwo
	LevelThree
	LevelFour
	LevelFive
	LevelSix
)

var (
	levelNames  = [...]string{"new", "one", "two", "three", "four", "five", "six"}
	levelByName = map[string]Level{
		"new":   LevelNew,
		"one":   LevelOne,
		"two":   LevelTwo,
		"three": LevelThree,
		"four":  LevelFour,
		"five":  LevelFive,
		"six":   LevelSix,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Level(0)
	_ encoding.TextMarshaler   = Level(0)
	_ encoding.TextUnmarshaler = (*Level)(nil)
	_ driver.Valuer            = Level(0)
	_ sql.Scanner              = (*Level)(nil)
)

// Levels returns every level in ascending order.
func Levels() []Level {
	return []Level{LevelNew, LevelOne, LevelTwo, LevelThree, LevelFour, LevelFive, LevelSix}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelNew && l <= LevelSix
}

// String returns the stored name of the level ("new" ... "six").
// For invalid values it returns "Level(n)".
func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses a stored level name.
func ParseLevel(s string) (Level, error) {
	l, ok := levelByName[s]
	if !ok {
		return LevelNew, fmt.Errorf("%w: unknown level %q", ErrInvalidArgument, s)
	}
	return l, nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: invalid level %d", ErrInvalidArgument, int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Value implements driver.Valuer. Levels are stored by name.
func (l Level) Value() (driver.Value, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Scan implements sql.Scanner. A NULL or empty status reads as LevelNew.
func (l *Level) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = LevelNew
		return nil
	case string:
		return l.scanName(v)
	case []byte:
		return l.scanName(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Level", src)
	}
}

func (l *Level) scanName(s string) error {
	if s == "" {
		*l = LevelNew
		return nil
	}
	return l.UnmarshalText([]byte(s))
}
