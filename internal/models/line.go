package models

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// DefaultUnit is the unit given to new lines.
const DefaultUnit = "Forfait"

var (
	// ErrLastLine is returned when removing the only line of a document.
	ErrLastLine = errors.New("a document must keep at least one line")
	// ErrLineNotFound is returned when no line carries the requested id.
	ErrLineNotFound = errors.New("line not found")
)

// Line is one billable item of a document.
// Total is derived from Quantity and UnitPrice and is never edited directly.
type Line struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// LinePatch carries the fields of a line edit; nil fields are left untouched.
type LinePatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
}

// BlankLine returns the template line used for new lines and for backfilling saved ones.
func BlankLine(id string) Line {
	return Line{ID: id, Unit: DefaultUnit, Quantity: 1}
}

// ApplyLinePatch returns a copy of l with p applied.
// The total is recomputed whenever the quantity or the unit price is part of the patch.
func ApplyLinePatch(l Line, p LinePatch) Line {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Unit != nil {
		l.Unit = *p.Unit
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		l.UnitPrice = *p.UnitPrice
	}
	if p.Quantity != nil || p.UnitPrice != nil {
		l.Total = LineTotal(l.Quantity, l.UnitPrice)
	}
	return l
}

// FindLine returns the index of the line with the given id, or -1.
func FindLine(lines []Line, id string) int {
	_, idx, ok := lo.FindIndexOf(lines, func(l Line) bool { return l.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// AddLine appends a blank line with the given id to a copy of lines.
func AddLine(lines []Line, id string) []Line {
	out := make([]Line, 0, len(lines)+1)
	out = append(out, lines...)
	return append(out, BlankLine(id))
}

// UpdateLine applies p to the line identified by id and returns the new list.
func UpdateLine(lines []Line, id string, p LinePatch) ([]Line, error) {
	idx := FindLine(lines, id)
	if idx < 0 {
		return nil, errors.Wrapf(ErrLineNotFound, "line %q", id)
	}
	out := CloneLines(lines)
	out[idx] = ApplyLinePatch(out[idx], p)
	return out, nil
}

// RemoveLine returns lines without the line identified by id.
// The last remaining line can never be removed.
func RemoveLine(lines []Line, id string) ([]Line, error) {
	idx := FindLine(lines, id)
	if idx < 0 {
		return nil, errors.Wrapf(ErrLineNotFound, "line %q", id)
	}
	if len(lines) <= 1 {
		return nil, ErrLastLine
	}
	return lo.Filter(lines, func(_ Line, i int) bool { return i != idx }), nil
}

// CloneLines returns a copy of lines that does not share the backing array.
func CloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
