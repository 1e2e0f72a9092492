package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// Header cells recognised in the first row of a sheet.
var headerNames = map[string]bool{
	"question": true,
	"frage":    true,
}

// ParseWorkbook reads the first sheet of an .xlsx file. Columns A, B and C
// hold question, answer and context.
func ParseWorkbook(path string) ([]domain.CardDraft, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

// ParseCSV reads comma separated rows of question, answer and context.
func ParseCSV(r io.Reader) ([]domain.CardDraft, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRows(rows), nil
}

// fromRows converts sheet rows into drafts. An optional header row is
// skipped, as are rows without a question or an answer.
func fromRows(rows [][]string) []domain.CardDraft {
	if len(rows) > 0 && len(rows[0]) > 0 && headerNames[strings.ToLower(strings.TrimSpace(rows[0][0]))] {
		rows = rows[1:]
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var drafts []domain.CardDraft
	for _, row := range rows {
		d := domain.CardDraft{Question: cell(row, 0), Answer: cell(row, 1), Context: cell(row, 2)}
		if d.Question == "" || d.Answer == "" {
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts
}
