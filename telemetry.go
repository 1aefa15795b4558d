package starship

import (
	"fmt"
	"math"
)

// VehicleTelemetry is the per-stage slice of a telemetry snapshot.
type VehicleTelemetry struct {
	Name             string
	Position         []float64
	Velocity         []float64
	Accel            []float64
	Pitch, Yaw, Roll float64
	Propellant       float64
	Throttle         float64
	FinDeploy        float64
	LegDeploy        float64
	HeatShieldTemp   float64
	MaxQ             float64
	MaxAccel         float64
	Active           bool
	Landed           bool
}

// AltitudeKm returns the altitude in kilometers.
func (t VehicleTelemetry) AltitudeKm() float64 {
	return t.Position[2] / 1000
}

// Speed returns the velocity magnitude in m/s.
func (t VehicleTelemetry) Speed() float64 {
	return norm(t.Velocity)
}

// AccelMag returns the acceleration magnitude in m/s².
func (t VehicleTelemetry) AccelMag() float64 {
	return norm(t.Accel)
}

// AttitudeDeg returns the tilt angle from vertical in degrees.
func (t VehicleTelemetry) AttitudeDeg() float64 {
	up := BodyUpAxis(t.Pitch, t.Yaw, t.Roll)
	return Rad2deg(math.Acos(clamp(up[2], -1, 1)))
}

// Snapshot is the telemetry record returned by every Update call, consumed by
// the rendering/UI layer.
type Snapshot struct {
	MET           float64 // s, mission elapsed time
	Phase         Phase
	DescentDetail string // landing sub-phase, empty outside guided descent
	Booster       VehicleTelemetry
	Ship          VehicleTelemetry
	Catch         CatchStatus
	Speed         float64 // simulation speed multiplier
}

// METString formats the mission elapsed time as HH:MM:SS.
func (s Snapshot) METString() string {
	total := int(s.MET)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func snapshotVehicle(v *Vehicle) VehicleTelemetry {
	return VehicleTelemetry{
		Name:           v.Name,
		Position:       append([]float64{}, v.Position...),
		Velocity:       append([]float64{}, v.Velocity...),
		Accel:          append([]float64{}, v.Accel...),
		Pitch:          v.Pitch,
		Yaw:            v.Yaw,
		Roll:           v.Roll,
		Propellant:     v.Propellant,
		Throttle:       v.Throttle,
		FinDeploy:      v.FinDeploy,
		LegDeploy:      v.LegDeploy,
		HeatShieldTemp: v.HeatShieldTemp,
		MaxQ:           v.MaxQ,
		MaxAccel:       v.MaxAccel,
		Active:         v.Active,
		Landed:         v.Landed,
	}
}
