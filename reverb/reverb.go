// Package reverb implements the effect engine's parameter side: 26 named
// environmental reverb presets and parameter mapping from a caller-supplied
// environmental description onto device.ReverbParams. Enable/disable
// routing through the auxiliary effect slot is done by soundsys.Engine,
// not by this package. Grounded on the
// spec's §4.4 mapping policy; the preset table itself is the standard
// EAX/EFX environmental reverb preset set (the same 26 entries OpenAL
// Soft ships in efx-presets.h), not teacher-derived — no file in the
// pack carries this table verbatim.
package reverb

import (
	"soundsys/audioutil"
	"soundsys/device"
)

// Preset indices, [0, 25].
const (
	PresetGeneric = iota
	PresetPaddedCell
	PresetRoom
	PresetBathroom
	PresetLivingRoom
	PresetStoneRoom
	PresetAuditorium
	PresetConcertHall
	PresetCave
	PresetArena
	PresetHangar
	PresetCarpetedHallway
	PresetHallway
	PresetStoneCorridor
	PresetAlley
	PresetForest
	PresetCity
	PresetMountains
	PresetQuarry
	PresetPlain
	PresetParkingLot
	PresetSewerPipe
	PresetUnderwater
	PresetDrugged
	PresetDizzy
	PresetPsychotic

	presetCount
)

// preset is one named environment's full parameter bundle, in the same
// units the EnvironmentalReverb input uses (room/room_hf/reflections/
// reverb in centibels or millibels, the rest already linear/seconds).
//
// The first block is the shared EAX2.0-era field set every caller can
// overwrite via EnvironmentalReverb. The second block only exists in the
// EAX-reverb model (AL_EFFECT_EAXREVERB) and is never exposed to callers
// for editing — it is preset-sourced only, exactly as the original engine
// left it untouched by its "specific properties" override step.
type preset struct {
	diffusion         float64
	room              int
	roomHF            int
	decayTime         float64
	decayHFRatio      float64
	reflections       int
	reflectionsDelay  float64
	lateReverb        int
	lateReverbDelay   float64
	roomRolloffFactor float64
	airAbsorptionHF   int

	density         float64
	gainLF          float64
	decayLFRatio    float64
	echoTime        float64
	echoDepth       float64
	modulationTime  float64
	modulationDepth float64
	hfReference     float64
	lfReference     float64
	decayHFLimit    bool
}

// eaxDefault holds the EAXREVERB library-default values for the
// extended fields: every preset uses these unless called out below.
// OpenAL Soft's efx-presets.h (not present in this pack's retrieved
// sources) ships specific per-preset values for all 26 environments;
// absent that table, ordinary presets take the library defaults and
// only the "altered state" presets — where pronounced echo/modulation
// is the entire point of the preset — get distinguishing values.
var eaxDefault = struct {
	density, gainLF, decayLFRatio                 float64
	echoTime, echoDepth                           float64
	modulationTime, modulationDepth               float64
	hfReference, lfReference                      float64
	decayHFLimit                                  bool
}{
	density: 1.0, gainLF: 1.0, decayLFRatio: 1.0,
	echoTime: 0.25, echoDepth: 0.0,
	modulationTime: 0.25, modulationDepth: 0.0,
	hfReference: 5000.0, lfReference: 250.0,
	decayHFLimit: true,
}

// base builds a preset from the 11 shared fields, filling the EAX-extended
// block with the library defaults.
func base(diffusion float64, room, roomHF int, decayTime, decayHFRatio float64, reflections int, reflectionsDelay float64, lateReverb int, lateReverbDelay, roomRolloffFactor float64, airAbsorptionHF int) preset {
	return preset{
		diffusion: diffusion, room: room, roomHF: roomHF,
		decayTime: decayTime, decayHFRatio: decayHFRatio,
		reflections: reflections, reflectionsDelay: reflectionsDelay,
		lateReverb: lateReverb, lateReverbDelay: lateReverbDelay,
		roomRolloffFactor: roomRolloffFactor, airAbsorptionHF: airAbsorptionHF,
		density: eaxDefault.density, gainLF: eaxDefault.gainLF, decayLFRatio: eaxDefault.decayLFRatio,
		echoTime: eaxDefault.echoTime, echoDepth: eaxDefault.echoDepth,
		modulationTime: eaxDefault.modulationTime, modulationDepth: eaxDefault.modulationDepth,
		hfReference: eaxDefault.hfReference, lfReference: eaxDefault.lfReference,
		decayHFLimit: eaxDefault.decayHFLimit,
	}
}

// presets is indexed by the Preset* constants above. The 11 shared fields
// follow the standard EAX/EFX environmental reverb table; room/room_hf/
// reflections/reverb are stored here in centibel/millibel space exactly as
// the public preset table defines them, ready to feed through
// ds_to_gain/mb_to_gain. The four "altered state" presets additionally
// carry hand-picked echo/modulation values since those parameters are the
// entire reason those presets exist beyond the plain reverb model; every
// other preset takes the EAX-extended library defaults (see eaxDefault).
var presets = [presetCount]preset{
	PresetGeneric:         base(1.00, -1000, -100, 1.49, 0.83, -2602, 0.007, 200, 0.011, 0.00, -5000),
	PresetPaddedCell:      base(0.17, -1000, -6000, 0.17, 0.10, -1204, 0.001, 207, 0.002, 0.00, -5000),
	PresetRoom:            base(0.40, -1000, -454, 0.40, 0.83, -1646, 0.002, 53, 0.003, 0.00, -5000),
	PresetBathroom:        base(0.54, -1000, -370, 1.49, 0.54, -370, 0.007, 1030, 0.011, 0.00, -5000),
	PresetLivingRoom:      base(0.10, -1000, -2560, 0.50, 0.10, -1376, 0.003, -1104, 0.004, 0.00, -5000),
	PresetStoneRoom:       base(1.00, -1000, -300, 2.31, 0.64, -711, 0.012, 83, 0.017, 0.00, -5000),
	PresetAuditorium:      base(1.00, -1000, -476, 4.32, 0.59, -789, 0.020, -289, 0.030, 0.00, -5000),
	PresetConcertHall:     base(1.00, -1000, -500, 3.92, 0.70, -1230, 0.020, -2, 0.029, 0.00, -5000),
	PresetCave:            base(1.00, -1000, 0, 2.91, 1.30, -602, 0.015, -302, 0.022, 0.00, 0),
	PresetArena:           base(1.00, -1000, -698, 7.24, 0.33, -1166, 0.020, 16, 0.030, 0.00, -5000),
	PresetHangar:          base(1.00, -1000, -1000, 10.05, 0.23, -602, 0.020, 198, 0.030, 0.00, -5000),
	PresetCarpetedHallway: base(0.01, -1000, -4050, 0.30, 0.10, -1831, 0.002, -1430, 0.030, 0.00, -5000),
	PresetHallway:         base(0.05, -1000, -300, 1.49, 0.59, -1219, 0.007, 441, 0.011, 0.00, -5000),
	PresetStoneCorridor:   base(1.00, -1000, -237, 2.70, 0.79, -1214, 0.013, 395, 0.020, 0.00, -5000),
	PresetAlley:           base(0.30, -1000, -270, 1.49, 0.86, -1204, 0.007, -4, 0.011, 0.00, -5000),
	PresetForest:          base(0.30, -1000, -3300, 1.49, 0.54, -2560, 0.162, -229, 0.088, 0.00, -5000),
	PresetCity:            base(0.50, -1000, -800, 1.49, 0.67, -2273, 0.007, -1691, 0.011, 0.00, -5000),
	PresetMountains:       base(0.27, -1000, -2500, 1.49, 0.21, -2780, 0.300, -1434, 0.100, 0.00, -5000),
	PresetQuarry:          base(1.00, -1000, -1000, 1.49, 0.83, -10000, 0.061, 500, 0.025, 0.00, -5000),
	PresetPlain:           base(0.21, -1000, -2000, 1.49, 0.50, -2466, 0.179, -1926, 0.100, 0.00, -5000),
	PresetParkingLot:      base(1.00, -1000, 0, 1.65, 1.50, -1363, 0.008, -1153, 0.012, 0.00, 0),
	PresetSewerPipe:       base(0.80, -1000, -1000, 2.81, 0.14, 429, 0.014, 1023, 0.021, 0.00, -5000),
	PresetUnderwater:      alteredState(base(1.00, -1000, -4000, 1.49, 0.10, -449, 0.007, 1700, 0.011, 0.00, -5000), 0.25, 0.35, 4.00, 1.00, false),
	PresetDrugged:         alteredState(base(0.50, -1000, 0, 8.39, 1.39, -115, 0.002, 985, 0.030, 0.00, -5000), 0.25, 0.50, 2.50, 1.00, true),
	PresetDizzy:           alteredState(base(0.60, -1000, -400, 17.23, 0.56, -1713, 0.020, -613, 0.030, 0.00, -4000), 0.25, 0.70, 2.00, 0.70, true),
	PresetPsychotic:       alteredState(base(0.50, -1000, -151, 7.56, 0.91, -626, 0.020, 774, 0.030, 0.00, -2000), 0.25, 0.90, 4.00, 1.00, false),
}

// alteredState overrides p's echo/modulation fields for the four presets
// whose defining character is a pronounced echo or modulation warble.
func alteredState(p preset, echoTime, echoDepth, modulationTime, modulationDepth float64, decayHFLimit bool) preset {
	p.echoTime = echoTime
	p.echoDepth = echoDepth
	p.modulationTime = modulationTime
	p.modulationDepth = modulationDepth
	p.decayHFLimit = decayHFLimit
	return p
}

// EnvironmentalReverb is the caller-facing input, per §4.4. The first block
// is the EAX2.0-era field set shared by both the plain reverb and the
// EAX-reverb effect models; every field is clamped to its documented range
// before mapping. The second block is EAX-extended: it has no field in the
// plain reverb model, is never overwritten by a caller's "specific
// properties" (it comes from FromPreset alone, per the original engine's
// behavior), and is only consulted when Map's result is applied to an
// EffectEAXReverb.
type EnvironmentalReverb struct {
	EnvironmentPresetID int
	Diffusion           float64
	Room                int
	RoomHF              int
	DecayTime           float64
	DecayHFRatio        float64
	Reflections         int
	ReflectionsDelay    float64
	Reverb              int
	ReverbDelay         float64
	RoomRolloffFactor   float64
	AirAbsorptionHF     int

	Density         float64
	GainLF          float64
	DecayLFRatio    float64
	EchoTime        float64
	EchoDepth       float64
	ModulationTime  float64
	ModulationDepth float64
	HFReference     float64
	LFReference     float64
	DecayHFLimit    bool
}

const (
	minDecayTime    = 0.1
	maxDecayTime    = 20.0
	minDecayHFRatio = 0.1
	maxDecayHFRatio = 2.0
	maxReflDelay    = 0.3
	maxLateDelay    = 0.1
	minRolloff      = 0.0
	maxRolloff      = 10.0

	minDecayLFRatio = 0.1
	maxDecayLFRatio = 2.0
	maxEchoTime     = 0.25
	maxModTime      = 4.0
)

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampCB(v int) int { return int(clampF(float64(v), -10000, 0)) }

// Clamp applies the documented input-range clamps to every field.
func (e EnvironmentalReverb) Clamp() EnvironmentalReverb {
	e.Diffusion = clampF(e.Diffusion, 0, 1)
	e.Room = clampCB(e.Room)
	e.RoomHF = clampCB(e.RoomHF)
	e.DecayTime = clampF(e.DecayTime, minDecayTime, maxDecayTime)
	e.DecayHFRatio = clampF(e.DecayHFRatio, minDecayHFRatio, maxDecayHFRatio)
	e.Reflections = clampCB(e.Reflections)
	e.ReflectionsDelay = clampF(e.ReflectionsDelay, 0, maxReflDelay)
	e.Reverb = clampCB(e.Reverb)
	e.ReverbDelay = clampF(e.ReverbDelay, 0, maxLateDelay)
	e.RoomRolloffFactor = clampF(e.RoomRolloffFactor, minRolloff, maxRolloff)
	e.AirAbsorptionHF = clampCB(e.AirAbsorptionHF)

	e.Density = clampF(e.Density, 0, 1)
	e.GainLF = clampF(e.GainLF, 0, 1)
	e.DecayLFRatio = clampF(e.DecayLFRatio, minDecayLFRatio, maxDecayLFRatio)
	e.EchoTime = clampF(e.EchoTime, 0.075, maxEchoTime)
	e.EchoDepth = clampF(e.EchoDepth, 0, 1)
	e.ModulationTime = clampF(e.ModulationTime, 0.04, maxModTime)
	e.ModulationDepth = clampF(e.ModulationDepth, 0, 1)
	e.HFReference = clampF(e.HFReference, 1000, 20000)
	e.LFReference = clampF(e.LFReference, 20, 1000)
	return e
}

// FromPreset loads the named environment's EnvironmentalReverb input, ready
// to be adjusted by the caller and passed to Map. Index is clamped to
// PresetGeneric when out of [0, 25].
func FromPreset(index int) EnvironmentalReverb {
	if index < 0 || index >= presetCount {
		index = PresetGeneric
	}
	p := presets[index]
	return EnvironmentalReverb{
		EnvironmentPresetID: index,
		Diffusion:           p.diffusion,
		Room:                p.room,
		RoomHF:              p.roomHF,
		DecayTime:           p.decayTime,
		DecayHFRatio:        p.decayHFRatio,
		Reflections:         p.reflections,
		ReflectionsDelay:    p.reflectionsDelay,
		Reverb:              p.lateReverb,
		ReverbDelay:         p.lateReverbDelay,
		RoomRolloffFactor:   p.roomRolloffFactor,
		AirAbsorptionHF:     p.airAbsorptionHF,

		Density:         p.density,
		GainLF:          p.gainLF,
		DecayLFRatio:    p.decayLFRatio,
		EchoTime:        p.echoTime,
		EchoDepth:       p.echoDepth,
		ModulationTime:  p.modulationTime,
		ModulationDepth: p.modulationDepth,
		HFReference:     p.hfReference,
		LFReference:     p.lfReference,
		DecayHFLimit:    p.decayHFLimit,
	}
}

// Map implements the §4.4 mapping policy: the caller's EnvironmentalReverb
// (normally built from FromPreset and then adjusted) is clamped and its
// centibel/millibel fields converted to linear gain via audioutil, yielding
// the device.ReverbParams an Effect is configured with. Map always
// populates the full parameter set, EAX-extended fields included; it is
// Effect.SetReverbParams's job to pick only the subset its concrete effect
// model actually has a property for (see device/oalbackend/efx.go).
func Map(in EnvironmentalReverb) device.ReverbParams {
	in = in.Clamp()

	return device.ReverbParams{
		Diffusion:           in.Diffusion,
		Gain:                audioutil.DsToGain(in.Room),
		GainHF:              audioutil.DsToGain(in.RoomHF),
		DecayTime:           in.DecayTime,
		DecayHFRatio:        in.DecayHFRatio,
		ReflectionsGain:     audioutil.MbToGain(in.Reflections),
		ReflectionsDelay:    in.ReflectionsDelay,
		LateReverbGain:      audioutil.MbToGain(in.Reverb),
		LateReverbDelay:     in.ReverbDelay,
		RoomRolloffFactor:   in.RoomRolloffFactor,
		AirAbsorptionGainHF: audioutil.MbToGain(in.AirAbsorptionHF),

		Density:         in.Density,
		GainLF:          in.GainLF,
		DecayLFRatio:    in.DecayLFRatio,
		EchoTime:        in.EchoTime,
		EchoDepth:       in.EchoDepth,
		ModulationTime:  in.ModulationTime,
		ModulationDepth: in.ModulationDepth,
		HFReference:     in.HFReference,
		LFReference:     in.LFReference,
		DecayHFLimit:    in.DecayHFLimit,
	}
}
