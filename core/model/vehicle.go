package model

import "fmt"

// Vehicle describes a car of the UMC fleet as listed in the vehicle register.
type Vehicle struct {
	Plate      string `json:"plate" yaml:"plate"`
	Model      string `json:"model" yaml:"model"`
	Department string `json:"department,omitempty" yaml:"department"`
	Seats      int    `json:"seats,omitempty" yaml:"seats"`
	// FuelStandard is the approved consumption in litres per 100 km.
	// Zero means no standard has been set.
	FuelStandard float64 `json:"fuel_standard" yaml:"fuel_standard"`
	// Retired vehicles are kept for history but not reported as idle.
	Retired bool `json:"retired,omitempty" yaml:"retired"`
}

// Validate checks that the register entry is usable.
func (v Vehicle) Validate() error {
	if v.Plate == "" {
		return fmt.Errorf("vehicle plate is required")
	}
	if v.FuelStandard < 0 {
		return fmt.Errorf("vehicle %s: fuel standard must not be negative", v.Plate)
	}
	return nil
}
