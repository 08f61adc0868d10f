package main

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	"gridtable/datatable"
)

// groupCommand groups a dataset by columns and aggregates its metrics.
type groupCommand struct {
	source *tableSource
	out    *outputFlags

	by     *[]string
	method *string
	sortBy *[]string
	desc   *bool
}

func (cmd *groupCommand) run(_ *kingpin.ParseContext) error {
	tbl, err := cmd.source.resolve(context.Background())
	if err != nil {
		return err
	}

	method, err := datatable.ParseMethod(*cmd.method)
	if err != nil {
		return err
	}
	tbl, err = tbl.GroupBy(*cmd.by, method)
	if err != nil {
		return err
	}
	if len(*cmd.sortBy) > 0 {
		tbl, err = tbl.SortBy(*cmd.sortBy, !*cmd.desc)
		if err != nil {
			return err
		}
	}
	return cmd.out.write(tbl)
}

func addGroupCommand(app *kingpin.Application, env *appEnv) {
	cmd := &groupCommand{}
	group := app.Command("group", "Group a dataset and aggregate its metric columns.").Action(cmd.run)
	cmd.source = addSourceFlags(group, env)
	cmd.by = group.Flag("by", "Column to group by. Repeatable.").Required().Strings()
	cmd.method = group.Flag("method", "Aggregation method: sum or mean.").Default("sum").Enum("sum", "mean")
	cmd.sortBy = group.Flag("sort", "Sort the result by this column. Repeatable.").Strings()
	cmd.desc = group.Flag("desc", "Sort descending instead of ascending.").Bool()
	cmd.out = addOutputFlags(group)
}
