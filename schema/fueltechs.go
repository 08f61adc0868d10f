package schema

import "strings"

// Fueltech is one fuel technology a generation series can be attributed
// to.
type Fueltech struct {
	Code      string
	Label     string
	Renewable bool
}

var fueltechs = []Fueltech{
	{Code: "coal_black", Label: "Coal (Black)"},
	{Code: "coal_brown", Label: "Coal (Brown)"},
	{Code: "gas_ccgt", Label: "Gas (CCGT)"},
	{Code: "gas_ocgt", Label: "Gas (OCGT)"},
	{Code: "distillate", Label: "Distillate"},
	{Code: "hydro", Label: "Hydro", Renewable: true},
	{Code: "wind", Label: "Wind", Renewable: true},
	{Code: "solar_utility", Label: "Solar (Utility)", Renewable: true},
	{Code: "solar_rooftop", Label: "Solar (Rooftop)", Renewable: true},
	{Code: "battery_charging", Label: "Battery (Charging)"},
	{Code: "battery_discharging", Label: "Battery (Discharging)"},
	{Code: "pumps", Label: "Pumps"},
	{Code: "bioenergy_biomass", Label: "Bioenergy (Biomass)", Renewable: true},
	{Code: "imports", Label: "Imports"},
	{Code: "exports", Label: "Exports"},
}

// Fueltechs lists the known fuel technologies.
func Fueltechs() []Fueltech {
	out := make([]Fueltech, len(fueltechs))
	copy(out, fueltechs)
	return out
}

// FueltechByCode looks a fuel technology up by its code.
func FueltechByCode(code string) (Fueltech, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, ft := range fueltechs {
		if ft.Code == code {
			return ft, true
		}
	}
	return Fueltech{}, false
}

// RenewableFueltechs lists the fuel technologies counted as renewable.
func RenewableFueltechs() []Fueltech {
	out := make([]Fueltech, 0, len(fueltechs))
	for _, ft := range fueltechs {
		if ft.Renewable {
			out = append(out, ft)
		}
	}
	return out
}
