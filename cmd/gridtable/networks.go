package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"gridtable/schema"
)

// networksCommand lists the registries: networks with their regions,
// fueltechs and units.
type networksCommand struct{}

func (cmd *networksCommand) run(_ *kingpin.ParseContext) error {
	bold := color.New(color.Bold)

	bold.Println("Networks:")
	for _, n := range schema.Networks() {
		fmt.Printf("\t%s  %s (%s), interval %dm, timezone %s\n",
			bold.Sprint(n.Code), n.Label, strings.ToUpper(n.Country), n.IntervalMinutes(), n.Timezone)
		fmt.Printf("\t\tregions: %s\n", strings.Join(n.Regions, ", "))
	}

	fmt.Println()
	bold.Println("Fueltechs:")
	for _, ft := range schema.Fueltechs() {
		marker := ""
		if ft.Renewable {
			marker = " (renewable)"
		}
		fmt.Printf("\t%s: %s%s\n", ft.Code, ft.Label, marker)
	}

	fmt.Println()
	bold.Println("Units:")
	for _, u := range schema.Units() {
		fmt.Printf("\t%s: %s (%s)\n", u.Name, u.Unit, u.UnitType)
	}
	return nil
}

func addNetworksCommand(app *kingpin.Application) {
	cmd := &networksCommand{}
	app.Command("networks", "List the known networks, fueltechs and units.").Action(cmd.run)
}
