package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

const (
	csvDelimiter = ","

	MsgTooFewLines   = "File must contain at least a header row and one data row"
	MsgNameRequired  = "Name is required"
	MsgInvalidEmail  = "Invalid email format"
	MsgDealTooLarge  = "Deal value must not exceed 999,999,999,999.99"
	msgInvalidStageF = `Invalid stage "%s". Must be one of: %s`
)

// ParsedRow is one candidate lead read from an import file. It is never
// persisted; only valid rows are turned into drafts on commit.
type ParsedRow struct {
	Line      int          `json:"line"`
	Name      string       `json:"name"`
	Email     *string      `json:"email,omitempty"`
	Phone     *string      `json:"phone,omitempty"`
	DealValue float64      `json:"deal_value"`
	Stage     entity.Stage `json:"stage"`
	Notes     *string      `json:"notes,omitempty"`
	IsValid   bool         `json:"is_valid"`
	Errors    []string     `json:"errors"`
}

func (r ParsedRow) draft(ownerID string) entity.LeadDraft {
	d := entity.LeadDraft{
		OwnerID:   ownerID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		DealValue: r.DealValue,
		Stage:     r.Stage,
		Notes:     r.Notes,
	}
	d.Normalize()
	return d
}

// Header keywords per field. The first header containing any keyword wins.
var (
	nameKeywords  = []string{"name", "contact", "lead"}
	emailKeywords = []string{"email", "mail"}
	phoneKeywords = []string{"phone", "tel", "mobile"}
	valueKeywords = []string{"value", "deal", "amount", "price"}
	stageKeywords = []string{"stage", "status", "phase"}
	notesKeywords = []string{"note", "comment", "description"}
)

type columnLayout struct {
	name, email, phone, value, stage, notes int
}

func detectColumns(headers []string) columnLayout {
	return columnLayout{
		name:  findColumn(headers, nameKeywords),
		email: findColumn(headers, emailKeywords),
		phone: findColumn(headers, phoneKeywords),
		value: findColumn(headers, valueKeywords),
		stage: findColumn(headers, stageKeywords),
		notes: findColumn(headers, notesKeywords),
	}
}

func findColumn(headers []string, keywords []string) int {
	for i, h := range headers {
		for _, k := range keywords {
			if strings.Contains(h, k) {
				return i
			}
		}
	}
	return -1
}

// ParseLeadsCSV turns delimited text into candidate rows, one per non-blank
// data line, in input order. It fails only when there is no header plus
// data row; every other problem is recorded on the row itself.
func ParseLeadsCSV(text string) ([]ParsedRow, error) {
	lines := nonBlankLines(strings.TrimPrefix(text, "\ufeff"))
	if len(lines) < 2 {
		return nil, &FormatError{Message: MsgTooFewLines}
	}

	headers := splitFields(lines[0])
	for i := range headers {
		headers[i] = strings.ToLower(headers[i])
	}
	cols := detectColumns(headers)

	rows := make([]ParsedRow, 0, len(lines)-1)
	for i, line := range lines[1:] {
		rows = append(rows, parseRow(i+1, splitFields(line), cols))
	}
	return rows, nil
}

func parseRow(line int, values []string, cols columnLayout) ParsedRow {
	row := ParsedRow{Line: line, Stage: entity.StageNew, Errors: []string{}}

	row.Name = field(values, cols.name)
	if row.Name == "" {
		row.Errors = append(row.Errors, MsgNameRequired)
	}

	if email := field(values, cols.email); email != "" {
		if !strings.Contains(email, "@") {
			row.Errors = append(row.Errors, MsgInvalidEmail)
		}
		row.Email = &email
	}

	row.Phone = entity.OptionalString(field(values, cols.phone))
	value, ok := parseDealValue(field(values, cols.value))
	if !ok {
		row.Errors = append(row.Errors, MsgDealTooLarge)
	}
	row.DealValue = value

	if label := field(values, cols.stage); label != "" {
		if s, ok := entity.ParseStage(label); ok {
			row.Stage = s
		} else {
			row.Errors = append(row.Errors,
				fmt.Sprintf(msgInvalidStageF, label, strings.Join(entity.StageLabels(), ", ")))
		}
	}

	row.Notes = entity.OptionalString(field(values, cols.notes))
	row.IsValid = len(row.Errors) == 0
	return row
}

func nonBlankLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// splitFields is a plain delimiter split: quotes are removed, not honoured.
func splitFields(line string) []string {
	parts := strings.Split(line, csvDelimiter)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(p), `"`, ""))
	}
	return parts
}

func field(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

var (
	currencyStripper = strings.NewReplacer("$", "", ",", "", "€", "", "£", "", "¥", "")
	leadingNumber    = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// parseDealValue reads the leading number after removing currency symbols and
// thousands separators. Anything unreadable or negative counts as 0. ok is
// false when the number is above entity.MaxDealValue; the value is then 0.
func parseDealValue(raw string) (value float64, ok bool) {
	s := strings.TrimSpace(currencyStripper.Replace(raw))
	num := leadingNumber.FindString(s)
	if num == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(num, 64)
	switch {
	case math.IsInf(v, 1), v > entity.MaxDealValue:
		return 0, false
	case err != nil, v < 0, math.IsNaN(v):
		return 0, true
	}
	return v, true
}

// CountRows splits parsed rows into valid and invalid counts.
func CountRows(rows []ParsedRow) (valid, invalid int) {
	for _, r := range rows {
		if r.IsValid {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}
