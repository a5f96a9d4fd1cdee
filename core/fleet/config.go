package fleet

import (
	"fmt"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// Thresholds are the daily limits above which a driver or vehicle counts as
// overloaded.
type Thresholds struct {
	MaxDailyHours float64 `json:"max_daily_hours"`
	MaxDailyTrips int     `json:"max_daily_trips"`
	MaxDailyKm    float64 `json:"max_daily_km"`
	// CriticalRatio escalates an overload to critical when the value reaches
	// limit*CriticalRatio.
	CriticalRatio float64 `json:"critical_ratio"`
}

// Config holds the KPI settings.
type Config struct {
	Thresholds           Thresholds `json:"thresholds"`
	AvailableHoursPerDay float64    `json:"available_hours_per_day"`
	// FuelTolerance is the relative deviation from the standard still
	// reported as ok (0.1 = 10%).
	FuelTolerance float64 `json:"fuel_tolerance"`
	// DefaultFuelStandard applies to vehicles without their own standard.
	// Zero leaves their fuel status unknown.
	DefaultFuelStandard float64 `json:"default_fuel_standard"`
	OutlierZ            float64 `json:"outlier_z"`
	// StandardsFile is an optional yaml or json vehicle register.
	StandardsFile string          `json:"standards_file"`
	Vehicles      []model.Vehicle `json:"vehicles"`
}

// SetDefaults fills zero values with the transport team's working rules.
func (c *Config) SetDefaults() {
	if c.Thresholds.MaxDailyHours <= 0 {
		c.Thresholds.MaxDailyHours = 10
	}
	if c.Thresholds.MaxDailyTrips <= 0 {
		c.Thresholds.MaxDailyTrips = 8
	}
	if c.Thresholds.MaxDailyKm <= 0 {
		c.Thresholds.MaxDailyKm = 400
	}
	if c.Thresholds.CriticalRatio <= 0 {
		c.Thresholds.CriticalRatio = 1.25
	}
	if c.AvailableHoursPerDay <= 0 {
		c.AvailableHoursPerDay = 8
	}
	if c.FuelTolerance <= 0 {
		c.FuelTolerance = 0.1
	}
	if c.OutlierZ <= 0 {
		c.OutlierZ = 2
	}
}

// Validate checks the settings after defaults are applied.
func (c Config) Validate() error {
	if c.Thresholds.CriticalRatio < 1 {
		return fmt.Errorf("critical_ratio must be at least 1")
	}
	if c.AvailableHoursPerDay > 24 {
		return fmt.Errorf("available_hours_per_day must not exceed 24")
	}
	if c.FuelTolerance >= 1 {
		return fmt.Errorf("fuel_tolerance must be below 1")
	}
	if c.DefaultFuelStandard < 0 {
		return fmt.Errorf("default_fuel_standard must not be negative")
	}
	for _, v := range c.Vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
