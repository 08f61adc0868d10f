package main

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	"gridtable/datatable"
)

// fetchCommand fetches or loads a dataset, applies the requested
// transformations and writes the result.
type fetchCommand struct {
	source *tableSource
	out    *outputFlags

	selectCols *[]string
	groupBy    *[]string
	method     *string
	sortBy     *[]string
	desc       *bool
}

func (cmd *fetchCommand) run(_ *kingpin.ParseContext) error {
	tbl, err := cmd.source.resolve(context.Background())
	if err != nil {
		return err
	}

	if len(*cmd.selectCols) > 0 {
		tbl, err = tbl.Select(*cmd.selectCols...)
		if err != nil {
			return err
		}
	}
	if len(*cmd.groupBy) > 0 {
		method, err := datatable.ParseMethod(*cmd.method)
		if err != nil {
			return err
		}
		tbl, err = tbl.GroupBy(*cmd.groupBy, method)
		if err != nil {
			return err
		}
	}
	if len(*cmd.sortBy) > 0 {
		tbl, err = tbl.SortBy(*cmd.sortBy, !*cmd.desc)
		if err != nil {
			return err
		}
	}
	return cmd.out.write(tbl)
}

func addFetchCommand(app *kingpin.Application, env *appEnv) {
	cmd := &fetchCommand{}
	fetch := app.Command("fetch", "Fetch a dataset and print or export it.").Action(cmd.run)
	cmd.source = addSourceFlags(fetch, env)
	cmd.selectCols = fetch.Flag("select", "Keep only these columns. Repeatable.").Strings()
	cmd.groupBy = fetch.Flag("group-by", "Group rows by this column before output. Repeatable.").Strings()
	cmd.method = fetch.Flag("method", "Aggregation method for --group-by: sum or mean.").Default("sum").Enum("sum", "mean")
	cmd.sortBy = fetch.Flag("sort", "Sort rows by this column. Repeatable.").Strings()
	cmd.desc = fetch.Flag("desc", "Sort descending instead of ascending.").Bool()
	cmd.out = addOutputFlags(fetch)
}
