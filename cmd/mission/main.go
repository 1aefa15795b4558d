package main

import (
	"flag"
	"fmt"
	"log"

	starship "github.com/omeedcs/starship-simulator"
)

// This command runs a full scripted flight: launch, ascent, separation,
// booster return and tower catch, and optionally streams the telemetry to CSV.

var (
	scenario  string
	export    string
	speed     float64
	sepAlt    float64
	maxMET    float64
	verbose   bool
	timestamp bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", "", "scenario TOML file (defaults apply if unset)")
	flag.StringVar(&export, "export", "", "CSV telemetry file name (disabled if unset)")
	flag.Float64Var(&speed, "speed", 10, "simulation speed multiplier")
	flag.Float64Var(&sepAlt, "sepalt", 62e3, "stage separation altitude in meters")
	flag.Float64Var(&maxMET, "maxmet", 1800, "abort the run after this many mission seconds")
	flag.BoolVar(&verbose, "verbose", false, "print a telemetry line every mission minute")
	flag.BoolVar(&timestamp, "timestamp", false, "timestamp the export file name")
}

func main() {
	flag.Parse()
	cfg := starship.DefaultConfig()
	if scenario != "" {
		var err error
		cfg, err = starship.LoadConfig(scenario)
		if err != nil {
			log.Fatalf("could not load scenario: %s", err)
		}
	}

	sim := starship.NewExportedSimulation(cfg, starship.ExportConfig{Filename: export, AsCSV: export != "", Timestamp: timestamp})
	defer sim.Close()
	sim.SetSimulationSpeed(speed)
	sim.StartLaunch()

	const frame = 1.0 / 30
	lastMinute := -1
	for {
		snap := sim.Update(frame)
		switch snap.Phase {
		case starship.Ascent:
			if snap.Booster.Position[2] > sepAlt {
				sim.TriggerStageSeparation()
			}
		case starship.BoosterReturn:
			if snap.DescentDetail == "approach" {
				sim.StartLandingSequence()
			}
		case starship.BoosterLanding:
			if snap.Booster.Position[2] < cfg.Tower.Height+cfg.Guidance.LandingAltitude {
				sim.StartMechazillaCatch()
			}
		}
		if verbose {
			if minute := int(snap.MET) / 60; minute > lastMinute {
				lastMinute = minute
				fmt.Printf("%s %-16s %-10s booster alt=%6.1f km v=%6.1f m/s fuel=%5.1f t | ship alt=%6.1f km v=%6.1f m/s\n",
					snap.METString(), snap.Phase, snap.DescentDetail,
					snap.Booster.AltitudeKm(), snap.Booster.Speed(), snap.Booster.Propellant/1000,
					snap.Ship.AltitudeKm(), snap.Ship.Speed())
			}
		}
		if snap.Phase == starship.MissionComplete {
			fmt.Printf("booster caught at %s\n", snap.METString())
			break
		}
		if snap.Catch.Failed {
			fmt.Printf("catch failed at %s\n", snap.METString())
			break
		}
		if snap.MET > maxMET {
			fmt.Printf("aborting: no outcome after %s\n", snap.METString())
			break
		}
	}
}
