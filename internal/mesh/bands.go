package mesh

import (
	"fmt"
	"sort"
	"strings"
)

// Color is a linear RGB triple in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var (
	DeepWater    = Color{0.05, 0.42, 0.71}
	ShallowWater = Color{0.2, 0.58, 0.82}
	Sand         = Color{0.96, 0.88, 0.47}
	Grass        = Color{0.57, 0.82, 0.2}
	Rock         = Color{0.36, 0.36, 0.36}
	Snow         = Color{1, 1, 1}
)

// Band colours every height strictly below Below.
type Band struct {
	Name  string  `json:"name"`
	Below float64 `json:"below"`
	Color Color   `json:"color"`
}

// BandTable maps a normalized height to a colour. Bands are checked in
// order and the first whose threshold exceeds the height wins; heights
// past the last threshold get Top.
type BandTable struct {
	Name  string `json:"name"`
	Bands []Band `json:"bands"`
	Top   Band   `json:"top"`
}

// ClassicBands keeps the sand strip narrow.
var ClassicBands = BandTable{
	Name: "classic",
	Bands: []Band{
		{Name: "deep_water", Below: 0.2, Color: DeepWater},
		{Name: "shallow_water", Below: 0.4, Color: ShallowWater},
		{Name: "sand", Below: 0.45, Color: Sand},
		{Name: "grass", Below: 0.65, Color: Grass},
		{Name: "rock", Below: 0.9, Color: Rock},
	},
	Top: Band{Name: "snow", Below: 1, Color: Snow},
}

// WideSandBands widens the beach up to 0.5.
var WideSandBands = BandTable{
	Name: "wide_sand",
	Bands: []Band{
		{Name: "deep_water", Below: 0.2, Color: DeepWater},
		{Name: "shallow_water", Below: 0.4, Color: ShallowWater},
		{Name: "sand", Below: 0.5, Color: Sand},
		{Name: "grass", Below: 0.65, Color: Grass},
		{Name: "rock", Below: 0.9, Color: Rock},
	},
	Top: Band{Name: "snow", Below: 1, Color: Snow},
}

var bandTables = map[string]BandTable{
	ClassicBands.Name:  ClassicBands,
	WideSandBands.Name: WideSandBands,
}

// BandsByName looks up a built-in table. An empty name selects ClassicBands.
func BandsByName(name string) (BandTable, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ClassicBands, nil
	}
	t, ok := bandTables[name]
	if !ok {
		return BandTable{}, fmt.Errorf("unknown band table %q", name)
	}
	return t, nil
}

// BandNames lists the built-in tables in sorted order.
func BandNames() []string {
	names := make([]string, 0, len(bandTables))
	for name := range bandTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports whether thresholds ascend strictly.
func (t BandTable) Validate() error {
	if len(t.Bands) == 0 {
		return fmt.Errorf("%w: band table %q has no bands", ErrInvalidBands, t.Name)
	}
	for i := 1; i < len(t.Bands); i++ {
		if !(t.Bands[i].Below > t.Bands[i-1].Below) {
			return fmt.Errorf("%w: band %q threshold %v does not ascend", ErrInvalidBands, t.Bands[i].Name, t.Bands[i].Below)
		}
	}
	return nil
}

// Classify returns the band that h falls into.
func (t BandTable) Classify(h float64) Band {
	for _, b := range t.Bands {
		if h < b.Below {
			return b
		}
	}
	return t.Top
}

// ColorAt is Classify(h).Color.
func (t BandTable) ColorAt(h float64) Color {
	return t.Classify(h).Color
}
