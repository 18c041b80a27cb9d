// Package cli implements the devis command line tool on top of the document store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/pdf"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/google/subcommands"
)

// Env carries what commands share. Open is called once per command, so help and
// usage never touch the database.
type Env struct {
	Open func(ctx context.Context) (*services.Store, error)
	PDF  pdf.Generator
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
}

// Register adds every devis command to c.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&showCmd{env: env}, "document")
	c.Register(&setCmd{env: env}, "document")
	c.Register(&toggleCmd{env: env}, "document")
	c.Register(&resetCmd{env: env}, "document")
	c.Register(&lineCmd{env: env}, "lines")
	c.Register(&exportCmd{env: env}, "files")
	c.Register(&importCmd{env: env}, "files")
}

func (e *Env) store(ctx context.Context) (*services.Store, bool) {
	s, err := e.Open(ctx)
	if err != nil {
		e.fail(err)
		return nil, false
	}
	return s, true
}

func (e *Env) fail(err error) {
	fmt.Fprintf(e.Err, "Error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(e.Err, "Hint: %s\n", hint)
	}
}

// summary prints the one-line state shown after every edit.
func (e *Env) summary(doc models.Document) {
	fmt.Fprintf(e.Out, "%s %s  %d ligne(s)  Total TTC %s\n",
		doc.Title(), doc.Reference(), len(doc.Lines), pdf.FormatCurrency(doc.Total))
}

// printMarkdown renders md for the terminal; raw prints the Markdown source.
func printMarkdown(w io.Writer, md, style string, raw bool) error {
	if raw {
		_, err := io.WriteString(w, md+"\n")
		return err
	}
	opt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		opt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
	if err != nil {
		return errors.Wrap(err, "init markdown renderer")
	}
	out, err := r.Render(md)
	if err != nil {
		return errors.Wrap(err, "render markdown")
	}
	_, err = io.WriteString(w, out)
	return err
}

// parseAssignments turns key=value arguments into a JSON object. Dotted keys build
// nested objects ("client.name=ACME"); the first dotted key under a name seeds that
// object from base so sibling fields survive. Amount and count fields are passed
// through as JSON, everything else is text where a literal \n becomes a newline.
func parseAssignments(base map[string]any, args []string) ([]byte, error) {
	obj := map[string]any{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.Newf("expected key=value, got %q", arg)
		}
		path := strings.Split(key, ".")
		if _, seen := obj[path[0]]; !seen && len(path) > 1 {
			if nested, ok := base[path[0]].(map[string]any); ok {
				obj[path[0]] = maps.Clone(nested)
			}
		}
		node := obj
		for _, p := range path[:len(path)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		leaf := path[len(path)-1]
		node[leaf] = literal(leaf, value)
	}
	return json.Marshal(obj)
}

// numericFields are decoded as JSON numbers; every other value is text.
var numericFields = map[string]bool{
	"number":         true,
	"dueDays":        true,
	"expirationDays": true,
	"vatRate":        true,
	"quantity":       true,
	"unitPrice":      true,
}

func literal(key, s string) any {
	if numericFields[key] && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return strings.ReplaceAll(s, `\n`, "\n")
}

// writeFile writes data to path, or to Out when path is "-".
func (e *Env) writeFile(path string, data []byte) error {
	if path == "-" {
		_, err := e.Out.Write(data)
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
