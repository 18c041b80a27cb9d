package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/xlsx"
	"github.com/google/subcommands"
)

// exportCmd writes the document as JSON, PDF or XLSX.
type exportCmd struct {
	env    *Env
	format string
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the document to a file" }
func (*exportCmd) Usage() string {
	return `devis export [-format json|pdf|xlsx] [-o file]

  Writes the document. The default file name is <reference>_<unix ms>.<ext>;
  "-o -" writes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "pdf", "json, pdf or xlsx")
	f.StringVar(&c.out, "o", "", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	doc := store.Document()

	var (
		data []byte
		err  error
	)
	switch c.format {
	case "json":
		data, err = services.ExportJSON(doc)
	case "pdf":
		data, err = c.env.PDF.Render(ctx, doc)
	case "xlsx":
		data, err = xlsx.Export(ctx, doc)
	default:
		fmt.Fprintf(c.env.Err, "unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		c.env.fail(err)
		return subcommands.ExitFailure
	}

	path := c.out
	if path == "" {
		path = services.ExportFilename(doc, c.format)
	}
	if err := c.env.writeFile(path, data); err != nil {
		c.env.fail(err)
		return subcommands.ExitFailure
	}
	if path != "-" {
		fmt.Fprintf(c.env.Out, "wrote %s\n", path)
	}
	return subcommands.ExitSuccess
}

// importCmd replaces the document with a JSON export.
type importCmd struct {
	env *Env
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "load a document from a JSON export" }
func (*importCmd) Usage() string {
	return `devis import <file>

  Replaces the current document with the content of a JSON export. Missing
  fields fall back to defaults; "-" reads stdin.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	data, err := c.env.readFile(f.Arg(0))
	if err != nil {
		c.env.fail(err)
		return subcommands.ExitFailure
	}
	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	doc, err := store.Import(ctx, data)
	if err != nil {
		if errors.Is(err, services.ErrNotObject) || errors.Is(err, services.ErrInvalidJSON) {
			err = errors.WithHint(err, "the file must hold a JSON object as written by devis export -format json")
		}
		c.env.fail(err)
		return subcommands.ExitFailure
	}
	c.env.summary(doc)
	return subcommands.ExitSuccess
}

func (e *Env) readFile(path string) ([]byte, error) {
	if path == "-" {
		if e.In == nil {
			return nil, errors.New("no standard input")
		}
		return io.ReadAll(e.In)
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read %s", path)
}
