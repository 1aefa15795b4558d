package starship

import "math"

// Atmosphere is a stateless altitude-to-air-properties model: an exponential
// scale-height profile for density and pressure, and a layered temperature
// approximation (troposphere lapse, isothermal tropopause, stratospheric
// warming, mesospheric cooling). All methods accept any real altitude in
// meters, including negative, and return finite positive values.
type Atmosphere struct {
	SeaLevelDensity     float64 // kg/m³
	SeaLevelPressure    float64 // Pa
	SeaLevelTemperature float64 // K
}

// NewAtmosphere returns the standard sea-level atmosphere.
func NewAtmosphere() Atmosphere {
	return Atmosphere{SeaLevelDensity: 1.225, SeaLevelPressure: 101325, SeaLevelTemperature: 288.15}
}

// atmLayer is a base altitude (m) and the scale height (m) that applies above it.
type atmLayer struct {
	base        float64
	scaleHeight float64
}

// Scale heights per layer, tuned against the US Standard Atmosphere tables.
// Each layer continues from the previous one so density and pressure are
// continuous and strictly decreasing with altitude.
var atmLayers = []atmLayer{
	{0, 8440},
	{11000, 6370},
	{25000, 6800},
	{47000, 7200},
	{86000, 5600},
}

// profileFloor bounds the profile away from zero: float64 exponentials
// underflow a few thousand kilometers up, and density and pressure must stay
// strictly positive at any altitude.
const profileFloor = 1e-30

// expProfile evaluates the piecewise exponential decay profile at the given
// altitude for a unit sea-level value.
func expProfile(altitude float64) float64 {
	if altitude <= 0 {
		// Below sea level the first layer extends downward.
		return math.Exp(-altitude / atmLayers[0].scaleHeight)
	}
	frac := 1.0
	for i, layer := range atmLayers {
		top := math.Inf(1)
		if i+1 < len(atmLayers) {
			top = atmLayers[i+1].base
		}
		if altitude < top {
			return math.Max(frac*math.Exp(-(altitude-layer.base)/layer.scaleHeight), profileFloor)
		}
		frac *= math.Exp(-(top - layer.base) / layer.scaleHeight)
	}
	return math.Max(frac, profileFloor)
}

// Density returns the air density in kg/m³ at the given altitude in meters.
func (a Atmosphere) Density(altitude float64) float64 {
	return a.SeaLevelDensity * expProfile(altitude)
}

// Pressure returns the static pressure in Pa at the given altitude in meters.
func (a Atmosphere) Pressure(altitude float64) float64 {
	return a.SeaLevelPressure * expProfile(altitude)
}

// Temperature returns the temperature in K at the given altitude in meters.
// Unlike density and pressure, temperature is not monotonic: it follows the
// layered profile of the standard atmosphere.
func (a Atmosphere) Temperature(altitude float64) float64 {
	switch {
	case altitude <= 0:
		return a.SeaLevelTemperature
	case altitude < 11000:
		// Tropospheric lapse rate of 6.5 K/km.
		return a.SeaLevelTemperature - 6.5e-3*altitude
	case altitude < 20000:
		return a.SeaLevelTemperature - 71.5
	case altitude < 47000:
		// Stratospheric warming up to roughly 270 K.
		return a.SeaLevelTemperature - 71.5 + 2.0e-3*(altitude-20000)
	case altitude < 86000:
		// Mesospheric cooling.
		return math.Max(a.SeaLevelTemperature-17.5-2.2e-3*(altitude-47000), 170)
	default:
		return 170
	}
}
