package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/google/subcommands"
)

// lineCmd edits the line table: add, edit <id> key=value..., rm <id>.
type lineCmd struct {
	env *Env
}

func (*lineCmd) Name() string     { return "line" }
func (*lineCmd) Synopsis() string { return "add, edit or remove document lines" }
func (*lineCmd) Usage() string {
	return `devis line add
devis line edit <id> key=value...
devis line rm <id>

  Line fields: title, description, unit, quantity, unitPrice.
  Line ids are listed by "devis show -json".
`
}

func (*lineCmd) SetFlags(*flag.FlagSet) {}

func (c *lineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	op, args := args[0], args[1:]
	switch {
	case op == "add" && len(args) == 0:
	case op == "edit" && len(args) >= 2:
	case op == "rm" && len(args) == 1:
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}

	store, ok := c.env.store(ctx)
	if !ok {
		return subcommands.ExitFailure
	}

	var (
		doc models.Document
		err error
	)
	switch op {
	case "add":
		var id string
		doc, id = store.AddLine(ctx)
		fmt.Fprintf(c.env.Out, "line %s added\n", id)
	case "edit":
		var p models.LinePatch
		if p, err = parseLinePatch(args[1:]); err != nil {
			c.env.fail(err)
			return subcommands.ExitUsageError
		}
		doc, err = store.UpdateLine(ctx, args[0], p)
	case "rm":
		doc, err = store.RemoveLine(ctx, args[0])
	}
	if err != nil {
		c.env.fail(lineHint(err))
		return subcommands.ExitFailure
	}
	c.env.summary(doc)
	return subcommands.ExitSuccess
}

func parseLinePatch(args []string) (models.LinePatch, error) {
	var p models.LinePatch
	data, err := parseAssignments(nil, args)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, errors.Wrap(err, "invalid line field")
	}
	return p, nil
}

func lineHint(err error) error {
	switch {
	case errors.Is(err, models.ErrLineNotFound):
		return errors.WithHint(err, `list line ids with "devis show -json"`)
	case errors.Is(err, models.ErrLastLine):
		return errors.WithHint(err, "a document keeps at least one line; edit it instead")
	}
	return err
}
