package fleet

import (
	"sort"

	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/normalize"
)

// Catalog indexes the vehicle register by plate.
type Catalog struct {
	byPlate map[string]model.Vehicle
}

// NewCatalog merges the given registers; later entries replace earlier ones
// with the same plate.
func NewCatalog(registers ...[]model.Vehicle) *Catalog {
	c := &Catalog{byPlate: make(map[string]model.Vehicle)}
	for _, list := range registers {
		for _, v := range list {
			v.Plate = normalize.CleanPlate(v.Plate)
			key := plateKey(v.Plate)
			if key == "" {
				continue
			}
			c.byPlate[key] = v
		}
	}
	return c
}

// Lookup returns the register entry for plate.
func (c *Catalog) Lookup(plate string) (model.Vehicle, bool) {
	if c == nil {
		return model.Vehicle{}, false
	}
	v, ok := c.byPlate[plateKey(plate)]
	return v, ok
}

// Vehicles lists the register sorted by plate.
func (c *Catalog) Vehicles() []model.Vehicle {
	if c == nil {
		return nil
	}
	out := make([]model.Vehicle, 0, len(c.byPlate))
	for _, v := range c.byPlate {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out
}

// Len returns the number of registered vehicles.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byPlate)
}

// plateKey drops dashes so "51B-123.45" and "51B12345" match.
func plateKey(p string) string {
	out := []rune{}
	for _, r := range normalize.CleanPlate(p) {
		if r != '-' {
			out = append(out, r)
		}
	}
	return string(out)
}
