package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NyankoNyan/buildgen/pkg/building"
	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/param"
	"github.com/NyankoNyan/buildgen/pkg/pipeline"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	building string
	seed     uint64
	sets     []string
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <config>",
		Short: "Show the parameters, block groups and buildings of a config",
		Long: `Inspect decodes a config and prints its contents as tables.

Parameters are listed with their expression and the value they evaluate to
in the global scope, defaults included. With --building the sections of that
building are listed along with the parameters visible to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.building, "building", "b", "", "show the sections of one building")
	cmd.Flags().Uint64Var(&opts.seed, "seed", pipeline.DefaultSeed, "random seed for rand ranges")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "override a default parameter (name=value, repeatable)")

	return cmd
}

func runInspect(ctx context.Context, input string, opts inspectOpts) error {
	logger := loggerFromContext(ctx)

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
	logger.Debug("decoded config", "file", src.Name, "buildings", len(file.Buildings))

	fmt.Println(StyleTitle.Render(src.Name))
	printKeyValue("Version", file.Version)
	printKeyValue("Buildings", strconv.Itoa(len(file.Buildings)))
	printKeyValue("Block groups", strconv.Itoa(len(file.BlockGroups)))
	fmt.Println()

	fmt.Println(StyleTitle.Render("Parameters"))
	fmt.Println(renderTable([]string{"Name", "Source", "Expression", "Value"}, parameterRows(asm, asm.GlobalScope(file))))
	fmt.Println()

	fmt.Println(StyleTitle.Render("Block groups"))
	fmt.Println(renderTable([]string{"Group", "Block", "Point type"}, blockGroupRows(file)))
	fmt.Println()

	if opts.building == "" {
		fmt.Println(StyleTitle.Render("Buildings"))
		fmt.Println(renderTable([]string{"Building", "Name", "Sections", "Description"}, buildingRows(file)))
		if len(file.Buildings) > 0 {
			printNextStep("Show one building", fmt.Sprintf("%s inspect %s -b %s", appName, input, file.Buildings[0].ID))
		}
		return nil
	}

	b, ok := file.Building(opts.building)
	if !ok {
		return fmt.Errorf("building %q not found", opts.building)
	}
	scope, err := asm.Scope(b.ID, "")
	if err != nil {
		return err
	}
	fmt.Println(StyleTitle.Render("Building " + b.Label()))
	if b.Description != "" {
		printDetail("%s", b.Description)
	}
	fmt.Println(renderTable([]string{"Name", "Source", "Expression", "Value"}, parameterRows(asm, scope)))
	fmt.Println()
	fmt.Println(renderTable([]string{"Section", "Block group", "Size", "Spacing", "Parameters"}, sectionRows(b)))
	return nil
}

// newInspector returns an assembler used only for scope and evaluation;
// it never places blocks.
func newInspector(file *config.File, seed uint64, sets []string) (*building.Assembler, error) {
	defaults, err := parseSets(sets)
	if err != nil {
		return nil, err
	}
	opts := []building.Option{building.WithEvaluator(param.NewEvaluator(param.NewRand(seed)))}
	if len(defaults) > 0 {
		opts = append(opts, building.WithDefaults(defaults))
	}
	return building.NewAssembler(building.NewLibrary(file), nil, opts...), nil
}

// parameterRows evaluates every name visible from scope. The source column
// tells whether the innermost definition is local to scope or inherited.
func parameterRows(asm *building.Assembler, scope *param.Scope) [][]string {
	var rows [][]string
	for _, name := range scope.Visible() {
		p, _ := scope.Lookup(name)
		source := definedIn(scope, name)
		value := ""
		if v, err := asm.Evaluator().Named(name, scope); err != nil {
			value = StyleWarning.Render("error: " + err.Error())
		} else {
			value = StyleValue.Render(v.String())
		}
		rows = append(rows, []string{name, StyleDim.Render(source), p.String(), value})
	}
	return rows
}

// definedIn names the scope level holding the innermost definition of name.
func definedIn(scope *param.Scope, name string) string {
	for cur := scope; cur != nil; cur = cur.Parent() {
		if _, ok := cur.Local(name); !ok {
			continue
		}
		switch {
		case cur.Parent() == nil:
			return "default"
		case cur == scope:
			return "local"
		default:
			return "inherited"
		}
	}
	return ""
}

func blockGroupRows(file *config.File) [][]string {
	var rows [][]string
	for _, g := range file.BlockGroups {
		for i, blk := range g.Blocks {
			group := ""
			if i == 0 {
				group = g.ID
			}
			rows = append(rows, []string{group, blk.ID, blk.PointType.String()})
		}
		if len(g.Blocks) == 0 {
			rows = append(rows, []string{g.ID, StyleDim.Render("(empty)"), ""})
		}
	}
	return rows
}

func buildingRows(file *config.File) [][]string {
	rows := make([][]string, 0, len(file.Buildings))
	for _, b := range file.Buildings {
		rows = append(rows, []string{b.ID, b.Name, strconv.Itoa(len(b.Sections)), b.Description})
	}
	return rows
}

func sectionRows(b *config.Building) [][]string {
	rows := make([][]string, 0, len(b.Sections))
	for _, s := range b.Sections {
		names := param.NewScope(s.Parameters).Names()
		rows = append(rows, []string{
			s.ID,
			s.BlockGroupID,
			paramString(s.Grid.Size),
			paramString(s.Grid.Spacing),
			strings.Join(names, ", "),
		})
	}
	return rows
}

func paramString(p param.Parameter) string {
	if p == nil {
		return ""
	}
	return p.String()
}
