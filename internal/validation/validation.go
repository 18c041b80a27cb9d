package validation

import (
	"math"
	"slices"
	"strings"
	"time"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		v[field] = "not_a_number"
		return
	}
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if math.IsNaN(val) || val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func OneOfInt(field string, val int, allowed []int, v Violations) {
	if !slices.Contains(allowed, val) {
		v[field] = "not_allowed"
	}
}

func OneOf(field, val string, allowed []string, v Violations) {
	if !slices.Contains(allowed, val) {
		v[field] = "not_allowed"
	}
}

// Date checks an optional ISO calendar date.
func Date(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		v[field] = "invalid_date"
	}
}

// Absent flags a field that must not be set in this context.
func Absent(field string, present bool, v Violations) {
	if present {
		v[field] = "not_allowed"
	}
}
