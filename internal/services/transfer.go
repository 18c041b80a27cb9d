package services

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
)

// ExportJSON returns the document as indented JSON, the format accepted by Import.
func ExportJSON(doc models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}
	return data, nil
}

// ExportFilename names an exported file after the document type and number,
// for example "quote_12.pdf".
func ExportFilename(doc models.Document, ext string) string {
	return fmt.Sprintf("%s_%d.%s", doc.Type, doc.Number, ext)
}

// ImportJSON checks that data is a JSON object and reconciles it against defaults
// without touching any store.
func ImportJSON(defaults models.Document, data []byte) (models.Document, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return models.Document{}, err
	}
	if fields == nil {
		return models.Document{}, ErrNotObject
	}
	return Reconcile(defaults, data)
}
