package cli

import (
	"context"
	"encoding/json"
	"flag"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/mdview"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/google/subcommands"
)

// showCmd prints the current document.
type showCmd struct {
	env   *Env
	raw   bool
	json  bool
	style string
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the current quote or invoice" }
func (*showCmd) Usage() string {
	return `devis show [-raw] [-json] [-style auto|dark|light|notty]

  Displays the document being edited.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print the Markdown source instead of styled output")
	f.BoolVar(&c.json, "json", false, "print the document as JSON")
	f.StringVar(&c.style, "style", "auto", "glamour style")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	doc := store.Document()
	if c.json {
		data, err := services.ExportJSON(doc)
		if err != nil {
			c.env.fail(err)
			return subcommands.ExitFailure
		}
		_, _ = c.env.Out.Write(append(data, '\n'))
		return subcommands.ExitSuccess
	}
	if err := printMarkdown(c.env.Out, mdview.Markdown(doc), c.style, c.raw); err != nil {
		c.env.fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// setCmd merges key=value assignments into the document.
type setCmd struct {
	env *Env
}

func (*setCmd) Name() string     { return "set" }
func (*setCmd) Synopsis() string { return "update document fields" }
func (*setCmd) Usage() string {
	return `devis set key=value...

  Updates document fields. Nested fields use dots and values are parsed as JSON
  when possible:

    devis set number=12 vatRate=5.5 client.name="ACME" notes='Merci\nÀ bientôt'
`
}

func (*setCmd) SetFlags(*flag.FlagSet) {}

func (c *setCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	patch, err := parsePatch(store.Document(), f.Args())
	if err != nil {
		c.env.fail(err)
		return subcommands.ExitUsageError
	}
	c.env.summary(store.Update(ctx, patch))
	return subcommands.ExitSuccess
}

// parsePatch decodes assignments into a Patch. Nested company and client fields are
// merged with doc, since the patch replaces those objects whole.
func parsePatch(doc models.Document, args []string) (services.Patch, error) {
	var p services.Patch
	current, err := json.Marshal(doc)
	if err != nil {
		return p, err
	}
	var base map[string]any
	if err := json.Unmarshal(current, &base); err != nil {
		return p, err
	}
	data, err := parseAssignments(base, args)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, errors.WithHint(errors.Wrap(err, "invalid field value"),
			"numbers must be plain (vatRate=20), text may be quoted")
	}
	return p, nil
}

type toggleCmd struct{ env *Env }

func (*toggleCmd) Name() string     { return "toggle" }
func (*toggleCmd) Synopsis() string { return "switch between quote and invoice" }
func (*toggleCmd) Usage() string {
	return `devis toggle

  Turns a quote into an invoice or back. Content is kept and the expiration or
  due date is set 30 days after the document date.
`
}
func (*toggleCmd) SetFlags(*flag.FlagSet) {}

func (c *toggleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	c.env.summary(store.ToggleType(ctx))
	return subcommands.ExitSuccess
}

type resetCmd struct{ env *Env }

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "start a new blank document" }
func (*resetCmd) Usage() string {
	return `devis reset

  Replaces the document with a blank one of the same type.
`
}
func (*resetCmd) SetFlags(*flag.FlagSet) {}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	c.env.summary(store.Reset(ctx))
	return subcommands.ExitSuccess
}
