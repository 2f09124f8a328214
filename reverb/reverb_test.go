package reverb

import (
	"math"
	"testing"

	"soundsys/device"
)

func TestFromPresetOutOfRangeFallsBackToGeneric(t *testing.T) {
	got := FromPreset(999)
	want := FromPreset(PresetGeneric)
	if got.EnvironmentPresetID != PresetGeneric {
		t.Fatalf("expected PresetGeneric fallback, got id %d", got.EnvironmentPresetID)
	}
	if got.DecayTime != want.DecayTime {
		t.Fatalf("fallback preset mismatch: got %v, want %v", got, want)
	}
}

func TestFromPresetNegativeFallsBackToGeneric(t *testing.T) {
	got := FromPreset(-1)
	if got.EnvironmentPresetID != PresetGeneric {
		t.Fatalf("expected PresetGeneric fallback, got id %d", got.EnvironmentPresetID)
	}
}

func TestClampRanges(t *testing.T) {
	in := EnvironmentalReverb{
		Diffusion:        5,
		Room:             100,
		RoomHF:           -99999,
		DecayTime:        100,
		DecayHFRatio:     -5,
		ReflectionsDelay: 10,
		ReverbDelay:      10,
		RoomRolloffFactor: -2,
		AirAbsorptionHF:  1,
	}
	out := in.Clamp()
	if out.Diffusion != 1 {
		t.Fatalf("Diffusion clamp: got %v", out.Diffusion)
	}
	if out.Room != 0 {
		t.Fatalf("Room clamp: got %v", out.Room)
	}
	if out.RoomHF != -10000 {
		t.Fatalf("RoomHF clamp: got %v", out.RoomHF)
	}
	if out.DecayTime != maxDecayTime {
		t.Fatalf("DecayTime clamp: got %v", out.DecayTime)
	}
	if out.DecayHFRatio != minDecayHFRatio {
		t.Fatalf("DecayHFRatio clamp: got %v", out.DecayHFRatio)
	}
	if out.ReflectionsDelay != maxReflDelay {
		t.Fatalf("ReflectionsDelay clamp: got %v", out.ReflectionsDelay)
	}
	if out.ReverbDelay != maxLateDelay {
		t.Fatalf("ReverbDelay clamp: got %v", out.ReverbDelay)
	}
	if out.RoomRolloffFactor != minRolloff {
		t.Fatalf("RoomRolloffFactor clamp: got %v", out.RoomRolloffFactor)
	}
	if out.AirAbsorptionHF != 0 {
		t.Fatalf("AirAbsorptionHF clamp: got %v", out.AirAbsorptionHF)
	}
}

func TestMapConvertsUnits(t *testing.T) {
	in := EnvironmentalReverb{
		EnvironmentPresetID: PresetCave,
		Room:                -1000,
		RoomHF:               0,
	}
	got := Map(in)
	want := device.ReverbParams{}.Gain
	_ = want
	if got.Gain <= 0 || got.Gain > 1 {
		t.Fatalf("Gain out of [0,1]: %v", got.Gain)
	}
	if math.Abs(got.GainHF-1.0) > 1e-9 {
		t.Fatalf("0 centibel RoomHF should map to unity gain, got %v", got.GainHF)
	}
}

func TestMapUnknownPresetIDPassesThroughCallerFields(t *testing.T) {
	in := EnvironmentalReverb{EnvironmentPresetID: 999, Room: -500}
	got := Map(in)
	if got.Gain != audioutilDsToGainForTest(-500) {
		t.Fatalf("Map should use caller-supplied fields regardless of preset id validity")
	}
}

func audioutilDsToGainForTest(cb int) float64 {
	return math.Pow(10, float64(cb)/2000)
}

func TestAllPresetsProduceValidParams(t *testing.T) {
	for id := 0; id < presetCount; id++ {
		in := FromPreset(id)
		got := Map(in)
		if got.DecayTime < minDecayTime || got.DecayTime > maxDecayTime {
			t.Fatalf("preset %d: DecayTime out of range: %v", id, got.DecayTime)
		}
		if got.DecayHFRatio < minDecayHFRatio || got.DecayHFRatio > maxDecayHFRatio {
			t.Fatalf("preset %d: DecayHFRatio out of range: %v", id, got.DecayHFRatio)
		}
	}
}

func TestExtendedFieldsDistinguishAlteredStatePresets(t *testing.T) {
	generic := FromPreset(PresetGeneric)
	underwater := FromPreset(PresetUnderwater)
	if generic.ModulationDepth == underwater.ModulationDepth {
		t.Fatalf("PresetUnderwater should carry a distinct ModulationDepth from the library default")
	}
	if underwater.ModulationDepth <= 0 || underwater.EchoDepth <= 0 {
		t.Fatalf("PresetUnderwater: want pronounced echo/modulation, got EchoDepth=%v ModulationDepth=%v",
			underwater.EchoDepth, underwater.ModulationDepth)
	}
}

func TestMapCarriesExtendedFieldsThrough(t *testing.T) {
	in := FromPreset(PresetDrugged)
	got := Map(in)
	if got.ModulationDepth != in.ModulationDepth {
		t.Fatalf("Map should pass ModulationDepth through unchanged: got %v, want %v", got.ModulationDepth, in.ModulationDepth)
	}
	if got.DecayHFLimit != in.DecayHFLimit {
		t.Fatalf("Map should pass DecayHFLimit through unchanged: got %v, want %v", got.DecayHFLimit, in.DecayHFLimit)
	}
}
