// Package config holds the enumerated configuration options from the
// external interfaces table: everything the driver and simulation need that
// isn't hardcoded, validated up front so bad values abort before the
// simulation starts rather than mid-run.
package config

import (
	"fmt"

	"github.com/streets4mpi/streets4mpi/internal/simerrors"
)

// SpeedModelKind selects which congestion speed model a Simulation uses.
type SpeedModelKind string

const (
	SpeedModelCongestion SpeedModelKind = "congestion"
	SpeedModelPeriodic   SpeedModelKind = "periodic"
)

// Config mirrors the options table from the external interfaces section.
type Config struct {
	// OSMFile names the source geographic data file. The core never opens
	// it; this is threaded through purely so it can be surfaced in
	// snapshots/logging by the (out of scope) map-loading collaborator.
	OSMFile string

	// RandomSeed is the base PRNG seed. Worker w's seed is RandomSeed + 37*w.
	RandomSeed int64

	MaxSimulationSteps int
	NumberOfResidents  int
	UseResidentialOrigins bool

	// TrafficPeriodDuration is hours; only consulted by SpeedModelPeriodic.
	TrafficPeriodDuration float64

	CarLength           float64
	MinBrakingDistance  float64
	BrakingDeceleration float64

	StepsBetweenStreetConstruction int
	TripVolume                     uint32

	PersistTrafficLoad bool

	// Logging is "stdout" or anything else (treated as off).
	Logging string

	SpeedModel SpeedModelKind

	Workers int
}

// Default returns the configuration defaults used throughout the spec:
// CAR_LENGTH=4.0m, MIN_BRAKE_DIST=0.001m, BRAKE_DECEL=7.5 m/s², trip_volume=1.
func Default() Config {
	return Config{
		OSMFile:                         "",
		RandomSeed:                      0,
		MaxSimulationSteps:              10,
		NumberOfResidents:               100,
		UseResidentialOrigins:           false,
		TrafficPeriodDuration:           8,
		CarLength:                       4.0,
		MinBrakingDistance:              0.001,
		BrakingDeceleration:             7.5,
		StepsBetweenStreetConstruction:  10,
		TripVolume:                      1,
		PersistTrafficLoad:              false,
		Logging:                         "off",
		SpeedModel:                      SpeedModelCongestion,
		Workers:                         1,
	}
}

// Validate checks the numeric ranges the simulation core depends on. It
// wraps simerrors.ErrInvalidConfiguration with the offending key so callers
// can report precisely what was wrong.
func (c Config) Validate() error {
	switch {
	case c.MaxSimulationSteps < 0:
		return invalid("max_simulation_steps", c.MaxSimulationSteps)
	case c.NumberOfResidents < 0:
		return invalid("number_of_residents", c.NumberOfResidents)
	case c.Workers <= 0:
		return invalid("workers", c.Workers)
	case c.StepsBetweenStreetConstruction < 0:
		return invalid("steps_between_street_construction", c.StepsBetweenStreetConstruction)
	case c.CarLength <= 0:
		return invalid("car_length", c.CarLength)
	case c.MinBrakingDistance <= 0:
		return invalid("min_breaking_distance", c.MinBrakingDistance)
	case c.BrakingDeceleration <= 0:
		return invalid("braking_deceleration", c.BrakingDeceleration)
	case c.SpeedModel != SpeedModelCongestion && c.SpeedModel != SpeedModelPeriodic:
		return invalid("speed_model", c.SpeedModel)
	}
	return nil
}

func invalid(key string, value any) error {
	return fmt.Errorf("%s=%v: %w", key, value, simerrors.ErrInvalidConfiguration)
}
