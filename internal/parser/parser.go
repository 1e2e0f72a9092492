// Package parser extracts card drafts from markdown notes and from
// spreadsheets.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type field int

const (
	none field = iota
	question
	answer
	context
)

// Supported reports whether ParseFile can read the file at path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".xlsx", ".csv":
		return true
	}
	return false
}

// ParseFile reads the file at path and extracts its cards. Markdown files
// use Q:/A:/C: blocks; .xlsx and .csv files hold one card per row.
func ParseFile(path string) ([]domain.CardDraft, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ParseWorkbook(path)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return ParseCSV(file)
	case ".md":
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return Parse(file)
	default:
		return nil, fmt.Errorf("%w: unsupported card file %s", domain.ErrInvalidArgument, path)
	}
}

// markdown accumulates the lines of the field being read.
type markdown struct {
	cards   []domain.CardDraft
	current domain.CardDraft
	field   field
	block   []string
}

// store moves the buffered block into the current field.
func (m *markdown) store() {
	if len(m.block) == 0 {
		return
	}
	content := strings.Join(m.block, "\n")
	switch m.field {
	case question:
		m.current.Question = content
	case answer:
		m.current.Answer = content
	case context:
		m.current.Context = content
	}
	m.block = nil
}

// finish closes the current card. Cards without a question are dropped.
func (m *markdown) finish() {
	m.store()
	if m.current.Question != "" {
		m.cards = append(m.cards, m.current)
	}
	m.current = domain.CardDraft{}
	m.field = none
}

func (m *markdown) start(f field, rest string) {
	m.store()
	if f == question && m.field != none {
		m.finish()
	}
	m.field = f
	m.block = append(m.block, strings.TrimPrefix(rest, " "))
}

// Parse reads markdown from r and extracts all cards. A card starts at a
// "Q:" line and runs until the next question or a "---" line.
func Parse(r io.Reader) ([]domain.CardDraft, error) {
	scanner := bufio.NewScanner(r)
	var m markdown

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == separator:
			m.finish()
		case strings.HasPrefix(line, questionPrefix):
			m.start(question, line[len(questionPrefix):])
		case strings.HasPrefix(line, answerPrefix):
			m.start(answer, line[len(answerPrefix):])
		case strings.HasPrefix(line, contextPrefix):
			m.start(context, line[len(contextPrefix):])
		case m.field != none:
			m.block = append(m.block, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	m.finish()
	return m.cards, nil
}
