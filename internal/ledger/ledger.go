package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Complaint status values.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// Record is one row of the customer table, keyed by registration number.
type Record struct {
	Name               string
	Email              string
	CarName            string
	RegNo              string
	Dealer             string
	Area               string
	PhoneNo            string
	ProblemArea        string
	Complaints         string
	Status             string
	RaisedDate         string
	ActionTaken        string
	ExpectedCompletion string
}

// columns is the fixed CSV schema. Header names are kept compatible with the
// spreadsheet the support team already works with.
var columns = []string{
	"Name", "Email", "Car Name", "Reg No", "Dealer", "Area", "Phone No",
	"Problem Area", "Complaints", "Complaint Status", "Complaint raised date",
	"Action taken", "Expected Time of Completion",
}

func (r Record) row() []string {
	return []string{
		r.Name, r.Email, r.CarName, r.RegNo, r.Dealer, r.Area, r.PhoneNo,
		r.ProblemArea, r.Complaints, r.Status, r.RaisedDate, r.ActionTaken,
		r.ExpectedCompletion,
	}
}

func recordFromRow(row []string) (Record, error) {
	if len(row) != len(columns) {
		return Record{}, fmt.Errorf("expected %d columns, got %d", len(columns), len(row))
	}
	return Record{
		Name: row[0], Email: row[1], CarName: row[2], RegNo: row[3],
		Dealer: row[4], Area: row[5], PhoneNo: row[6], ProblemArea: row[7],
		Complaints: row[8], Status: row[9], RaisedDate: row[10],
		ActionTaken: row[11], ExpectedCompletion: row[12],
	}, nil
}

// Ledger is the in-memory customer table. Lookup is exact-match on the
// registration number string; records are never deleted.
type Ledger struct {
	records []Record
	index   map[string]int
}

func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Load reads the customer table from a CSV file. A missing file yields an
// empty ledger with the fixed schema.
func Load(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	l := New()
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i, err)
		}
		l.Upsert(rec)
	}
	return l, nil
}

// Lookup returns the record for the given registration number, if present.
func (l *Ledger) Lookup(regNo string) (Record, bool) {
	i, ok := l.index[regNo]
	if !ok {
		return Record{}, false
	}
	return l.records[i], true
}

// Upsert appends a new record if the registration number is absent. An
// existing record is never overwritten here; mutations go through
// UpdateFields.
func (l *Ledger) Upsert(rec Record) {
	if _, ok := l.index[rec.RegNo]; ok {
		return
	}
	l.index[rec.RegNo] = len(l.records)
	l.records = append(l.records, rec)
}

// FieldUpdates carries the mutable complaint fields. Nil pointers leave the
// current value untouched.
type FieldUpdates struct {
	Status             *string
	ActionTaken        *string
	ExpectedCompletion *string
}

// UpdateFields mutates an existing record in place. Returns false if the
// registration number is unknown.
func (l *Ledger) UpdateFields(regNo string, u FieldUpdates) bool {
	i, ok := l.index[regNo]
	if !ok {
		return false
	}
	if u.Status != nil {
		l.records[i].Status = *u.Status
	}
	if u.ActionTaken != nil {
		l.records[i].ActionTaken = *u.ActionTaken
	}
	if u.ExpectedCompletion != nil {
		l.records[i].ExpectedCompletion = *u.ExpectedCompletion
	}
	return true
}

// Records returns a copy of all rows in insertion order.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Len() int { return len(l.records) }

// Save rewrites the full table to the given path.
func (l *Ledger) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ledger file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range l.records {
		if err := w.Write(rec.row()); err != nil {
			f.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return f.Close()
}
