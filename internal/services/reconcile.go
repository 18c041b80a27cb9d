package services

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
)

var (
	// ErrInvalidJSON is returned when saved or imported data is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNotObject is returned when saved or imported JSON is not an object.
	ErrNotObject = errors.New("JSON value is not an object")
)

// Reconcile merges a persisted document, possibly partial or shaped by an older version,
// over defaults and returns a complete document.
//
// Empty input or JSON null yields defaults unchanged. Fields are decoded one by one, so a
// field holding an unexpected type keeps its default instead of failing the whole load;
// only invalid JSON or a non-object value is an error. Unknown fields are ignored.
// Totals are copied as saved; callers recompute them.
func Reconcile(defaults models.Document, saved []byte) (models.Document, error) {
	fields, err := decodeObject(saved)
	if err != nil {
		return models.Document{}, err
	}
	if fields == nil {
		return defaults, nil
	}

	out := defaults.Clone()
	decodeField(fields, "id", &out.ID)
	var typ models.DocType
	if decodeField(fields, "type", &typ) && typ.Valid() {
		out.Type = typ
	}
	if n, ok := decodeInt(fields, "number"); ok {
		out.Number = n
	}
	var date string
	if decodeField(fields, "date", &date) {
		if _, err := time.Parse(models.DateLayout, date); err == nil {
			out.Date = date
		}
	}

	// Unmarshalling into a copy of the default keeps the keys the saved value lacks.
	decodeField(fields, "company", &out.Company)
	decodeField(fields, "client", &out.Client)
	out.Lines = reconcileLines(defaults.Lines, fields["lines"])

	decodeField(fields, "vatRate", &out.VatRate)
	decodeField(fields, "subtotal", &out.Subtotal)
	decodeField(fields, "vatAmount", &out.VatAmount)
	decodeField(fields, "total", &out.Total)
	decodeField(fields, "notes", &out.Notes)
	decodeField(fields, "paymentTerms", &out.PaymentTerms)
	decodeField(fields, "bankName", &out.BankName)
	decodeField(fields, "iban", &out.IBAN)
	decodeField(fields, "bic", &out.BIC)

	return repairConditionalDates(out, fields), nil
}

// repairConditionalDates guarantees the date pair matching the type is populated
// and the other pair is empty.
func repairConditionalDates(d models.Document, fields map[string]json.RawMessage) models.Document {
	var savedTarget string
	if d.IsInvoice() {
		days := models.DefaultDays
		if n, ok := decodeInt(fields, "dueDays"); ok && n > 0 {
			days = n
		}
		decodeField(fields, "dueDate", &savedTarget)
		d.DueDays, d.DueDate = days, savedTarget
		if d.DueDate == "" {
			d.DueDate = targetDate(d.Date, days)
		}
		d.ExpirationDays, d.ExpirationDate = 0, ""
		return d
	}

	days := models.DefaultDays
	if n, ok := decodeInt(fields, "expirationDays"); ok && models.IsValidExpirationDays(n) {
		days = n
	}
	decodeField(fields, "expirationDate", &savedTarget)
	d.ExpirationDays, d.ExpirationDate = days, savedTarget
	if d.ExpirationDate == "" {
		d.ExpirationDate = targetDate(d.Date, days)
	}
	d.DueDays, d.DueDate = 0, ""
	return d
}

// reconcileLines replaces the default lines with the saved ones when there is at least one,
// backfilling each saved line from the blank template.
func reconcileLines(defaults []models.Line, raw json.RawMessage) []models.Line {
	var items []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &items) != nil || len(items) == 0 {
		return models.CloneLines(defaults)
	}

	lines := make([]models.Line, 0, len(items))
	for _, item := range items {
		line := models.BlankLine("")
		fields, err := decodeObject(item)
		if err == nil && fields != nil {
			decodeField(fields, "id", &line.ID)
			decodeField(fields, "title", &line.Title)
			decodeField(fields, "description", &line.Description)
			decodeField(fields, "unit", &line.Unit)
			decodeField(fields, "quantity", &line.Quantity)
			decodeField(fields, "unitPrice", &line.UnitPrice)
			if !decodeField(fields, "total", &line.Total) {
				line.Total = models.LineTotal(line.Quantity, line.UnitPrice)
			}
		}
		if line.ID == "" {
			line.ID = newID()
		}
		lines = append(lines, line)
	}
	return lines
}

// decodeObject returns the top-level fields of data, or nil for empty input and JSON null.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, ErrInvalidJSON
	}
	if trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, errors.Wrap(err, "decode object")
	}
	return fields, nil
}

// decodeField unmarshals fields[key] into dst. It reports false when the key is absent,
// null, or fully mismatched; dst is then left as it was.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	err := json.Unmarshal(raw, dst)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && len(raw) > 0 && raw[0] == '{' {
		// objects keep the sub-fields that did decode
		return true
	}
	return err == nil
}

// decodeInt reads an integral JSON number; 30 and 30.0 are accepted, 30.5 is not.
func decodeInt(fields map[string]json.RawMessage, key string) (int, bool) {
	var f float64
	if !decodeField(fields, key, &f) {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
