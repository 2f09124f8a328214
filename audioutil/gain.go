// Package audioutil holds the small arithmetic helpers the mixing engine
// treats as an external contract in the original design: centibel/millibel
// to linear-gain conversion and LT-style volume clamping. There is no
// decoding or DSP here, just the handful of logarithmic mappings the voice
// and reverb code call on every parameter update.
package audioutil

import "math"

// MinLTVolume and MaxLTVolume bound the centibel-like volume range used by
// panning voices and 3D sources ([-10000, 0], 0 = full volume).
const (
	MinLTVolume = -10000
	MaxLTVolume = 0
)

// ClampLTVolume clamps v to [MinLTVolume, MaxLTVolume].
func ClampLTVolume(v int) int {
	switch {
	case v < MinLTVolume:
		return MinLTVolume
	case v > MaxLTVolume:
		return MaxLTVolume
	default:
		return v
	}
}

// LTVolumeToGain converts a clamped LT-style volume (centibels, <= 0) to a
// linear gain in [0, 1]. 0 cb is unity gain, -10000 cb is silence.
func LTVolumeToGain(volume int) float64 {
	v := ClampLTVolume(volume)
	return math.Pow(10, float64(v)/2000)
}

// MbToGain converts a millibel value to linear gain using the same
// logarithmic slope as LTVolumeToGain, scaled for millibel units.
func MbToGain(millibels int) float64 {
	return math.Pow(10, float64(millibels)/2000)
}

// DsToGain converts a DirectSound-style room/room_hf attenuation (centibels,
// clamped to the LT volume range) to linear gain. It is the same mapping as
// LTVolumeToGain; kept as a distinct name because the reverb mapping in
// §4.4 calls it out as a separate conceptual step from voice volume.
func DsToGain(centibels int) float64 {
	return LTVolumeToGain(centibels)
}

// PanToGain maps a pan position in [0, 127] (64 = center) to the gain
// attenuation applied to the opposite channel, mirroring the original
// engine's pan curve: linear distance from center mapped through the same
// logarithmic gain curve as volume.
func PanToGain(pan int) float64 {
	switch {
	case pan < 0:
		pan = 0
	case pan > 127:
		pan = 127
	}
	dist := pan - 64
	if dist < 0 {
		dist = -dist
	}
	// Full excursion (|dist| == 64) maps to MinLTVolume worth of attenuation.
	cb := -((dist * -MinLTVolume) / 64)
	return LTVolumeToGain(cb)
}
