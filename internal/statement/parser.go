// Package statement turns a bank-statement spreadsheet into canonical
// transaction candidates. Parsing is resilient per row: a bad row is
// recorded as an error keyed by its 1-based physical row number and
// processing continues. The import workflow layers its stricter
// all-or-nothing policy on top.
package statement

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Fixed column positions of the supported statement layout. Header names
// are ignored; only positions matter.
const (
	numColumns        = 7
	colOperationDate  = 0
	colAccountingDate = 1
	colIBAN           = 2
	colTypeLabel      = 3
	colPayee          = 4
	colDescription    = 5
	colAmount         = 6
)

var supportedExtensions = map[string]bool{".xlsx": true, ".xlsm": true}

// RowError records why one statement row could not be parsed.
type RowError struct {
	Row     int // 1-based physical row number, header included
	Message string
}

// Candidate is one parsed statement row, normalized and categorized but not
// yet persisted.
type Candidate struct {
	AccountID      string
	Date           time.Time // operation date
	AccountingDate time.Time // zero when the cell is absent or unreadable
	IBAN           string
	TypeLabel      string
	Payee          string
	Description    string // synthesized from payee and free text
	Amount         decimal.Decimal
	Category       string
}

// Result holds the ordered candidates and row errors of one parse run.
// It is transient and never persisted.
type Result struct {
	Transactions []Candidate
	Errors       []RowError
}

// Parser reads bank-statement spreadsheets.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts the first sheet of a spreadsheet into candidates. File
// preconditions (existence, readability, extension) yield a result with a
// single error and no candidates; row failures never abort the run.
// Parsing is deterministic: identical bytes yield identical results.
func (p *Parser) Parse(path, accountID string) Result {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return fileError(fmt.Sprintf("unsupported file type %q, want .xlsx or .xlsm", ext))
	}
	if _, err := os.Stat(path); err != nil {
		return fileError(fmt.Sprintf("cannot read file: %v", err))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fileError(fmt.Sprintf("opening spreadsheet: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fileError("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fileError(fmt.Sprintf("reading sheet %q: %v", sheets[0], err))
	}

	var res Result
	// Row 0 is the header.
	for i := 1; i < len(rows); i++ {
		if emptyRow(rows[i]) {
			continue
		}
		cand, err := parseRow(rows[i], accountID)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		res.Transactions = append(res.Transactions, cand)
	}
	return res
}

func parseRow(cells []string, accountID string) (Candidate, error) {
	if len(cells) < numColumns {
		return Candidate{}, fmt.Errorf("row has %d columns, want %d", len(cells), numColumns)
	}

	date, err := ParseDate(strings.TrimSpace(cells[colOperationDate]))
	if err != nil {
		return Candidate{}, err
	}

	// The accounting date is informational; an unreadable one does not
	// fail the row.
	var accountingDate time.Time
	if s := strings.TrimSpace(cells[colAccountingDate]); s != "" {
		if d, err := ParseDate(s); err == nil {
			accountingDate = d
		}
	}

	amount, err := ParseAmount(cells[colAmount])
	if err != nil {
		return Candidate{}, err
	}

	label := strings.TrimSpace(cells[colTypeLabel])
	payee := strings.TrimSpace(cells[colPayee])
	desc := strings.TrimSpace(cells[colDescription])

	return Candidate{
		AccountID:      accountID,
		Date:           date,
		AccountingDate: accountingDate,
		IBAN:           strings.TrimSpace(cells[colIBAN]),
		TypeLabel:      label,
		Payee:          payee,
		Description:    synthesizeDescription(payee, desc),
		Amount:         amount,
		Category:       Categorize(amount, label, payee, desc),
	}, nil
}

func synthesizeDescription(payee, desc string) string {
	switch {
	case payee != "" && desc != "":
		return payee + " - " + desc
	case payee != "":
		return payee
	case desc != "":
		return desc
	default:
		return "Movimento bancario"
	}
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/06",
}

// ParseDate accepts a spreadsheet serial number (native date cell) or a
// string in day/month/year order.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func fileError(msg string) Result {
	return Result{Errors: []RowError{{Row: 0, Message: msg}}}
}
