package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/param"
	"github.com/NyankoNyan/buildgen/pkg/pipeline"
)

// evalOpts holds the command-line flags for the eval command.
type evalOpts struct {
	building string
	section  string
	seed     uint64
	sets     []string
}

// evalCommand creates the eval command.
func (c *CLI) evalCommand() *cobra.Command {
	var opts evalOpts

	cmd := &cobra.Command{
		Use:   "eval <config> <name|expression>",
		Short: "Evaluate a parameter or an expression",
		Long: `Eval resolves a parameter the way the generator would.

The second argument is either a parameter name or an expression in YAML
form, such as '$floors' or '{ add: [$width, 1] }'. It is resolved in the
global scope, or in the scope of --building and --section when given.`,
		Example: `  buildgen eval towers.yaml bridgeLength
  buildgen eval towers.yaml floors -b twin -s bridge
  buildgen eval towers.yaml '{ rand_int: [0, 10] }' --seed 7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.building, "building", "b", "", "resolve in the scope of this building")
	cmd.Flags().StringVarP(&opts.section, "section", "s", "", "resolve in the scope of this section (needs --building)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", pipeline.DefaultSeed, "random seed for rand ranges")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "override a default parameter (name=value, repeatable)")

	return cmd
}

func runEval(ctx context.Context, input, expr string, opts evalOpts) error {
	if opts.section != "" && opts.building == "" {
		return fmt.Errorf("--section needs --building")
	}

	src, err := pipeline.LoadSource(input)
	if err != nil {
		return err
	}
	file, err := src.Decode()
	if err != nil {
		return err
	}
	asm, err := newInspector(file, opts.seed, opts.sets)
	if err != nil {
		return err
	}

	scope := asm.GlobalScope(file)
	if opts.building != "" {
		if scope, err = asm.Scope(opts.building, opts.section); err != nil {
			return err
		}
	}

	v, err := evaluate(asm.Evaluator(), scope, expr)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("evaluated", "expr", expr, "kind", v.Kind())

	style := StyleValue
	if v.IsNumeric() {
		style = StyleNumber
	}
	fmt.Printf("%s %s\n", style.Render(v.String()), StyleDim.Render("("+v.Kind().String()+")"))
	return nil
}

// evaluate resolves expr as a visible parameter name, or else parses it as
// an expression.
func evaluate(e *param.Evaluator, scope *param.Scope, expr string) (param.Value, error) {
	if _, ok := scope.Lookup(expr); ok {
		return e.Named(expr, scope)
	}
	p, err := config.ParseParameterText(expr, config.FormatYAML)
	if err != nil {
		return param.Value{}, err
	}
	return e.Evaluate(p, scope)
}
