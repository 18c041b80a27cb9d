package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/storage"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubPDF struct{}

func (stubPDF) Render(_ context.Context, doc models.Document) ([]byte, error) {
	return []byte("%PDF-1.3 " + doc.Reference()), nil
}

type harness struct {
	env *Env
	out *bytes.Buffer
	err *bytes.Buffer
	kv  storage.KV
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.Entry{}))

	h := &harness{out: &bytes.Buffer{}, err: &bytes.Buffer{}, kv: storage.NewGormKV(db)}
	now := func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	h.env = &Env{
		Open: func(ctx context.Context) (*services.Store, error) {
			s := services.NewStore(h.kv, services.DefaultStateKey, logger.NewNop(), services.WithClock(now))
			s.Init(ctx, s.Defaults())
			return s, nil
		},
		PDF: stubPDF{},
		In:  strings.NewReader(""),
		Out: h.out,
		Err: h.err,
	}
	return h
}

// run executes one command line the way main does, on a fresh commander.
func (h *harness) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	h.out.Reset()
	h.err.Reset()
	fs := flag.NewFlagSet("devis", flag.ContinueOnError)
	c := subcommands.NewCommander(fs, "devis")
	c.Output, c.Error = h.out, h.err
	Register(c, h.env)
	require.NoError(t, fs.Parse(args))
	return c.Execute(context.Background())
}

// saved returns the document as a new process would load it.
func (h *harness) saved(t *testing.T) models.Document {
	t.Helper()
	s, err := h.env.Open(context.Background())
	require.NoError(t, err)
	return s.Document()
}

func TestParseAssignments(t *testing.T) {
	base := map[string]any{"client": map[string]any{"name": "Old", "city": "Lyon"}}

	data, err := parseAssignments(base, []string{
		"client.name=ACME",
		"number=12",
		"vatRate=5.5",
		"notes=Merci\\nÀ bientôt",
		"client.postalCode=69001",
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 12.0, got["number"])
	assert.Equal(t, 5.5, got["vatRate"])
	assert.Equal(t, "Merci\nÀ bientôt", got["notes"])
	assert.Equal(t, map[string]any{"name": "ACME", "city": "Lyon", "postalCode": "69001"}, got["client"])
	assert.Equal(t, "Old", base["client"].(map[string]any)["name"], "base must not be modified")

	_, err = parseAssignments(nil, []string{"number"})
	require.Error(t, err)
	_, err = parseAssignments(nil, []string{"=3"})
	require.Error(t, err)
}

func TestParsePatch_RejectsBadNumbers(t *testing.T) {
	_, err := parsePatch(models.Document{}, []string{"vatRate=abc"})
	require.Error(t, err)
}

func TestSet(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "set", "client.city=Lyon"))
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "set", "number=12", "vatRate=10", "client.name=ACME"))
	assert.Contains(t, h.out.String(), "Devis D-2024-012")

	doc := h.saved(t)
	assert.Equal(t, 12, doc.Number)
	assert.Equal(t, 10.0, doc.VatRate)
	assert.Equal(t, "ACME", doc.Client.Name)
	assert.Equal(t, "Lyon", doc.Client.City)

	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "set"))
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "set", "vatRate=abc"))
	assert.Contains(t, h.err.String(), "Hint:")
}

func TestLine(t *testing.T) {
	h := newHarness(t)
	first := h.saved(t).Lines[0].ID

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "line", "edit", first, "title=Dev", "quantity=3", "unitPrice=19.99"))
	doc := h.saved(t)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "Dev", doc.Lines[0].Title)
	assert.Equal(t, 59.97, doc.Lines[0].Total)
	assert.Equal(t, 59.97, doc.Subtotal)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "line", "add"))
	assert.Contains(t, h.out.String(), "2 ligne(s)")
	doc = h.saved(t)
	require.Len(t, doc.Lines, 2)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "line", "rm", first))
	doc = h.saved(t)
	require.Len(t, doc.Lines, 1)
	assert.NotEqual(t, first, doc.Lines[0].ID)

	assert.Equal(t, subcommands.ExitFailure, h.run(t, "line", "rm", doc.Lines[0].ID))
	assert.Contains(t, h.err.String(), "at least one line")
	assert.Contains(t, h.err.String(), "Hint:")

	assert.Equal(t, subcommands.ExitFailure, h.run(t, "line", "edit", "missing", "title=x"))
	assert.Contains(t, h.err.String(), "line not found")

	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "line", "rm"))
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "line", "move", "a"))
}

func TestToggleAndReset(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "set", "client.name=ACME"))

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "toggle"))
	doc := h.saved(t)
	assert.Equal(t, models.TypeInvoice, doc.Type)
	assert.Equal(t, "ACME", doc.Client.Name)
	assert.Equal(t, "2024-03-31", doc.DueDate)
	assert.Empty(t, doc.ExpirationDate)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "reset"))
	doc = h.saved(t)
	assert.Equal(t, models.TypeInvoice, doc.Type)
	assert.Empty(t, doc.Client.Name)
	assert.Len(t, doc.Lines, 1)
}

func TestShow(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "set", "number=7"))

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "show", "-raw"))
	assert.Contains(t, h.out.String(), "# Devis")
	assert.Contains(t, h.out.String(), "D-2024-007")

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "show", "-json"))
	var doc models.Document
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &doc))
	assert.Equal(t, 7, doc.Number)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "show", "-style", "notty"))
	assert.Contains(t, h.out.String(), "D-2024-007")
}

func TestExportAndImport(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "set", "number=3", "client.name=ACME"))

	jsonPath := filepath.Join(dir, "doc.json")
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "export", "-format", "json", "-o", jsonPath))
	assert.Contains(t, h.out.String(), "wrote "+jsonPath)

	pdfPath := filepath.Join(dir, "doc.pdf")
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "export", "-o", pdfPath))
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 D-2024-003", string(data))

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "export", "-format", "xlsx", "-o", "-"))
	assert.True(t, bytes.HasPrefix(h.out.Bytes(), []byte("PK")), "xlsx is a zip archive")

	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "export", "-format", "docx"))

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "reset"))
	require.Empty(t, h.saved(t).Client.Name)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "import", jsonPath))
	doc := h.saved(t)
	assert.Equal(t, "ACME", doc.Client.Name)
	assert.Equal(t, 3, doc.Number)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[1,2]"), 0o644))
	assert.Equal(t, subcommands.ExitFailure, h.run(t, "import", bad))
	assert.Contains(t, h.err.String(), "Hint:")

	assert.Equal(t, subcommands.ExitFailure, h.run(t, "import", filepath.Join(dir, "missing.json")))
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "import"))
}

func TestImportFromStdin(t *testing.T) {
	h := newHarness(t)
	h.env.In = strings.NewReader(`{"type":"invoice","number":9,"date":"2024-02-01"}`)

	require.Equal(t, subcommands.ExitSuccess, h.run(t, "import", "-"))
	doc := h.saved(t)
	assert.Equal(t, models.TypeInvoice, doc.Type)
	assert.Equal(t, 9, doc.Number)
	assert.Len(t, doc.Lines, 1)
}

func TestOpenFailure(t *testing.T) {
	h := newHarness(t)
	h.env.Open = func(context.Context) (*services.Store, error) {
		return nil, errors.New("database is locked")
	}
	assert.Equal(t, subcommands.ExitFailure, h.run(t, "show"))
	assert.Contains(t, h.err.String(), "database is locked")
}
