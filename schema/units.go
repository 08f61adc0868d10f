package schema

import "strings"

// Unit describes how a metric series is labelled and displayed.
// CastNulls records whether the upstream feed fills missing readings
// with zeroes; it is carried as metadata only and loaders never do the
// filling themselves, a missing reading stays a no-data value.
type Unit struct {
	Name      string
	NameAlias string
	UnitType  string
	Unit      string
	RoundTo   int
	CastNulls bool
}

var units = []Unit{
	{Name: "power", NameAlias: "Generation", UnitType: "power", Unit: "MW", RoundTo: 2},
	{Name: "energy", NameAlias: "Energy", UnitType: "energy", Unit: "MWh", RoundTo: 2, CastNulls: true},
	{Name: "price", NameAlias: "Price", UnitType: "price", Unit: "$/MWh", RoundTo: 2, CastNulls: true},
	{Name: "demand", NameAlias: "Demand", UnitType: "power", Unit: "MW", RoundTo: 2, CastNulls: true},
	{Name: "emissions", NameAlias: "Emissions", UnitType: "emissions", Unit: "tCO2e", RoundTo: 4, CastNulls: true},
	{Name: "market_value", NameAlias: "Market Value", UnitType: "market_value", Unit: "$", RoundTo: 2, CastNulls: true},
}

// Units lists the known unit definitions.
func Units() []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	return out
}

// UnitByName looks a unit definition up by metric name.
func UnitByName(name string) (Unit, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, u := range units {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}
