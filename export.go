package starship

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ExportConfig configures the streaming of telemetry snapshots to disk.
type ExportConfig struct {
	Filename  string
	AsCSV     bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV || c.Filename == ""
}

// StreamStates reads telemetry snapshots from the channel until it closes and
// writes them out as CSV. Run it in its own goroutine; the simulation owns the
// channel and closes it on reset or completion.
func StreamStates(conf ExportConfig, stateChan <-chan Snapshot) {
	if conf.IsUseless() {
		for range stateChan {
			// Drain to not block the producer.
		}
		return
	}
	name := fmt.Sprintf("%s.csv", conf.Filename)
	if conf.Timestamp {
		name = fmt.Sprintf("%s-%s.csv", conf.Filename, time.Now().Format("2006-01-02-15.04.05"))
	}
	f, err := os.Create(name)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"met", "phase", "descent",
		"boosterAltKm", "boosterSpeed", "boosterFuel", "boosterThrottle",
		"shipAltKm", "shipSpeed", "shipFuel", "shipThrottle",
		"caught", "failed"})
	for state := range stateChan {
		w.Write([]string{
			fmt.Sprintf("%.3f", state.MET),
			state.Phase.String(),
			state.DescentDetail,
			fmt.Sprintf("%.4f", state.Booster.AltitudeKm()),
			fmt.Sprintf("%.2f", state.Booster.Speed()),
			fmt.Sprintf("%.1f", state.Booster.Propellant),
			fmt.Sprintf("%.3f", state.Booster.Throttle),
			fmt.Sprintf("%.4f", state.Ship.AltitudeKm()),
			fmt.Sprintf("%.2f", state.Ship.Speed()),
			fmt.Sprintf("%.1f", state.Ship.Propellant),
			fmt.Sprintf("%.3f", state.Ship.Throttle),
			strconv.FormatBool(state.Catch.Caught),
			strconv.FormatBool(state.Catch.Failed),
		})
	}
}
