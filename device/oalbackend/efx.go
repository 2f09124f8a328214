package oalbackend

/*
#include <stdlib.h>
#include <string.h>
#include <AL/al.h>
#include <AL/alc.h>

typedef void     (*LPALGENEFFECTS)(ALsizei, ALuint*);
typedef void     (*LPALDELETEEFFECTS)(ALsizei, const ALuint*);
typedef void     (*LPALEFFECTI)(ALuint, ALenum, ALint);
typedef void     (*LPALEFFECTF)(ALuint, ALenum, ALfloat);
typedef void     (*LPALGENAUXILIARYEFFECTSLOTS)(ALsizei, ALuint*);
typedef void     (*LPALDELETEAUXILIARYEFFECTSLOTS)(ALsizei, const ALuint*);
typedef void     (*LPALAUXILIARYEFFECTSLOTI)(ALuint, ALenum, ALint);
typedef void     (*LPALSOURCE3I)(ALuint, ALenum, ALint, ALint, ALint);

static void oal_gen_effects(LPALGENEFFECTS fn, ALsizei n, ALuint *ids) { fn(n, ids); }
static void oal_delete_effects(LPALDELETEEFFECTS fn, ALsizei n, const ALuint *ids) { fn(n, ids); }
static void oal_effecti(LPALEFFECTI fn, ALuint e, ALenum p, ALint v) { fn(e, p, v); }
static void oal_effectf(LPALEFFECTF fn, ALuint e, ALenum p, ALfloat v) { fn(e, p, v); }
static void oal_gen_aux_slots(LPALGENAUXILIARYEFFECTSLOTS fn, ALsizei n, ALuint *ids) { fn(n, ids); }
static void oal_delete_aux_slots(LPALDELETEAUXILIARYEFFECTSLOTS fn, ALsizei n, const ALuint *ids) { fn(n, ids); }
static void oal_aux_slot_i(LPALAUXILIARYEFFECTSLOTI fn, ALuint slot, ALenum p, ALint v) { fn(slot, p, v); }
static void oal_source3i(LPALSOURCE3I fn, ALuint src, ALenum p, ALint v1, ALint v2, ALint v3) { fn(src, p, v1, v2, v3); }

#ifndef AL_EFFECT_TYPE
#define AL_EFFECT_TYPE 0x8001
#endif
#ifndef AL_EFFECT_REVERB
#define AL_EFFECT_REVERB 0x0001
#endif
#ifndef AL_EFFECT_EAXREVERB
#define AL_EFFECT_EAXREVERB 0x8000
#endif
#ifndef AL_AUXILIARY_SEND_FILTER
#define AL_AUXILIARY_SEND_FILTER 0x20006
#endif
#ifndef AL_EFFECTSLOT_EFFECT
#define AL_EFFECTSLOT_EFFECT 0x0001
#endif
#ifndef AL_FILTER_NULL
#define AL_FILTER_NULL 0x0000
#endif

#ifndef AL_REVERB_DIFFUSION
#define AL_REVERB_DIFFUSION 0x0002
#define AL_REVERB_GAIN 0x0003
#define AL_REVERB_GAINHF 0x0004
#define AL_REVERB_DECAY_TIME 0x0005
#define AL_REVERB_DECAY_HFRATIO 0x0006
#define AL_REVERB_REFLECTIONS_GAIN 0x0007
#define AL_REVERB_REFLECTIONS_DELAY 0x0008
#define AL_REVERB_LATE_REVERB_GAIN 0x0009
#define AL_REVERB_LATE_REVERB_DELAY 0x000A
#define AL_REVERB_ROOM_ROLLOFF_FACTOR 0x000B
#define AL_REVERB_AIR_ABSORPTION_GAINHF 0x000C
#endif

#ifndef AL_EAXREVERB_DENSITY
#define AL_EAXREVERB_DENSITY 0x0001
#define AL_EAXREVERB_DIFFUSION 0x0002
#define AL_EAXREVERB_GAIN 0x0003
#define AL_EAXREVERB_GAINHF 0x0004
#define AL_EAXREVERB_GAINLF 0x0005
#define AL_EAXREVERB_DECAY_TIME 0x0006
#define AL_EAXREVERB_DECAY_HFRATIO 0x0007
#define AL_EAXREVERB_DECAY_LFRATIO 0x0008
#define AL_EAXREVERB_REFLECTIONS_GAIN 0x0009
#define AL_EAXREVERB_REFLECTIONS_DELAY 0x000A
#define AL_EAXREVERB_LATE_REVERB_GAIN 0x000C
#define AL_EAXREVERB_LATE_REVERB_DELAY 0x000D
#define AL_EAXREVERB_ECHO_TIME 0x000F
#define AL_EAXREVERB_ECHO_DEPTH 0x0010
#define AL_EAXREVERB_MODULATION_TIME 0x0011
#define AL_EAXREVERB_MODULATION_DEPTH 0x0012
#define AL_EAXREVERB_AIR_ABSORPTION_GAINHF 0x0013
#define AL_EAXREVERB_HFREFERENCE 0x0014
#define AL_EAXREVERB_LFREFERENCE 0x0015
#define AL_EAXREVERB_ROOM_ROLLOFF_FACTOR 0x0016
#define AL_EAXREVERB_DECAY_HFLIMIT 0x0017
#endif
*/
import "C"

import (
	"fmt"
	"unsafe"

	"soundsys/device"
)

// efxAuxiliarySendFilter is AL_AUXILIARY_SEND_FILTER, used by Source.SetAuxSend.
const efxAuxiliarySendFilter = C.AL_AUXILIARY_SEND_FILTER

// efxFilterNull is AL_FILTER_NULL, used to mean "no filter" on an aux send.
const efxFilterNull = C.AL_FILTER_NULL

// efxProcs is the resolved EFX extension dispatch table: every EFX entry
// point the engine uses, looked up once via alGetProcAddress rather than
// re-resolved on every call. This mirrors how the original driver pulled
// its ~30 EFX function pointers into a single capability struct at init.
type efxProcs struct {
	genEffects           C.LPALGENEFFECTS
	deleteEffects        C.LPALDELETEEFFECTS
	effecti              C.LPALEFFECTI
	effectf              C.LPALEFFECTF
	genAuxSlots          C.LPALGENAUXILIARYEFFECTSLOTS
	deleteAuxSlots       C.LPALDELETEAUXILIARYEFFECTSLOTS
	auxSlotI             C.LPALAUXILIARYEFFECTSLOTI
	source3i             C.LPALSOURCE3I
}

func resolveEFXProcs() *efxProcs {
	return &efxProcs{
		genEffects:     C.LPALGENEFFECTS(efxProc("alGenEffects")),
		deleteEffects:  C.LPALDELETEEFFECTS(efxProc("alDeleteEffects")),
		effecti:        C.LPALEFFECTI(efxProc("alEffecti")),
		effectf:        C.LPALEFFECTF(efxProc("alEffectf")),
		genAuxSlots:    C.LPALGENAUXILIARYEFFECTSLOTS(efxProc("alGenAuxiliaryEffectSlots")),
		deleteAuxSlots: C.LPALDELETEAUXILIARYEFFECTSLOTS(efxProc("alDeleteAuxiliaryEffectSlots")),
		auxSlotI:       C.LPALAUXILIARYEFFECTSLOTI(efxProc("alAuxiliaryEffectSloti")),
		source3i:       C.LPALSOURCE3I(efxProc("alSource3i")),
	}
}

func efxProc(name string) unsafe.Pointer {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.alGetProcAddress((*C.ALchar)(unsafe.Pointer(cname)))
}

func (p *efxProcs) genEffectsFn(n C.ALsizei, ids *C.ALuint) { C.oal_gen_effects(p.genEffects, n, ids) }
func (p *efxProcs) deleteEffectsFn(n C.ALsizei, ids *C.ALuint) {
	C.oal_delete_effects(p.deleteEffects, n, ids)
}
func (p *efxProcs) effectI(e C.ALuint, param C.ALenum, v C.ALint) { C.oal_effecti(p.effecti, e, param, v) }
func (p *efxProcs) effectF(e C.ALuint, param C.ALenum, v C.ALfloat) { C.oal_effectf(p.effectf, e, param, v) }
func (p *efxProcs) genAuxiliaryEffectSlots(n C.ALsizei, ids *C.ALuint) {
	C.oal_gen_aux_slots(p.genAuxSlots, n, ids)
}
func (p *efxProcs) deleteAuxiliaryEffectSlots(n C.ALsizei, ids *C.ALuint) {
	C.oal_delete_aux_slots(p.deleteAuxSlots, n, ids)
}
func (p *efxProcs) auxSlotI(slot C.ALuint, param C.ALenum, v C.ALint) {
	C.oal_aux_slot_i(p.auxSlotI, slot, param, v)
}
func (p *efxProcs) source3i(src C.ALuint, param C.ALenum, v1, v2, v3 C.ALint) {
	C.oal_source3i(p.source3i, src, C.ALenum(param), v1, v2, v3)
}

// AuxEffectSlot wraps one EFX auxiliary effect slot.
type AuxEffectSlot struct {
	id     C.ALuint
	procs  *efxProcs
	effect *Effect
}

func (a *AuxEffectSlot) SetEffect(e device.Effect) error {
	eff, ok := e.(*Effect)
	var effID C.ALuint
	if ok && eff != nil {
		effID = eff.id
	}
	a.procs.auxSlotI(a.id, C.AL_EFFECTSLOT_EFFECT, C.ALint(effID))
	if err := checkErr("alAuxiliaryEffectSloti(AL_EFFECTSLOT_EFFECT)"); err != nil {
		return err
	}
	if ok {
		a.effect = eff
	} else {
		a.effect = nil
	}
	return nil
}

func (a *AuxEffectSlot) Close() error {
	id := a.id
	a.procs.deleteAuxiliaryEffectSlots(1, &id)
	return checkErr("alDeleteAuxiliaryEffectSlots")
}

// Effect wraps one EFX effect object: a plain reverb or an EAX reverb,
// matching the two device.EffectKind values soundsys.Engine chooses
// between when it creates the reverb effect.
type Effect struct {
	id    C.ALuint
	kind  device.EffectKind
	procs *efxProcs
}

func (e *Effect) Kind() device.EffectKind { return e.kind }

func (e *Effect) applyKind() error {
	switch e.kind {
	case device.EffectNull:
		return nil
	case device.EffectReverb:
		e.procs.effectI(e.id, C.AL_EFFECT_TYPE, C.AL_EFFECT_REVERB)
	case device.EffectEAXReverb:
		e.procs.effectI(e.id, C.AL_EFFECT_TYPE, C.AL_EFFECT_EAXREVERB)
	default:
		return fmt.Errorf("oalbackend: unknown effect kind %d", e.kind)
	}
	return checkErr("alEffecti(AL_EFFECT_TYPE)")
}

// SetReverbParams applies p to the effect. The plain reverb model only has
// a property for the 11 fields shared with EAX reverb (set_efx_reverb_
// properties in the original driver); the EAX reverb model additionally
// takes p's extended block (set_efx_eax_reverb_properties), which the
// plain model has no property for at all.
func (e *Effect) SetReverbParams(p device.ReverbParams) error {
	set := func(param C.ALenum, v float64) {
		e.procs.effectF(e.id, param, C.ALfloat(v))
	}
	switch e.kind {
	case device.EffectReverb:
		set(C.AL_REVERB_DIFFUSION, p.Diffusion)
		set(C.AL_REVERB_GAIN, p.Gain)
		set(C.AL_REVERB_GAINHF, p.GainHF)
		set(C.AL_REVERB_DECAY_TIME, p.DecayTime)
		set(C.AL_REVERB_DECAY_HFRATIO, p.DecayHFRatio)
		set(C.AL_REVERB_REFLECTIONS_GAIN, p.ReflectionsGain)
		set(C.AL_REVERB_REFLECTIONS_DELAY, p.ReflectionsDelay)
		set(C.AL_REVERB_LATE_REVERB_GAIN, p.LateReverbGain)
		set(C.AL_REVERB_LATE_REVERB_DELAY, p.LateReverbDelay)
		set(C.AL_REVERB_ROOM_ROLLOFF_FACTOR, p.RoomRolloffFactor)
		set(C.AL_REVERB_AIR_ABSORPTION_GAINHF, p.AirAbsorptionGainHF)
	case device.EffectEAXReverb:
		set(C.AL_EAXREVERB_DIFFUSION, p.Diffusion)
		set(C.AL_EAXREVERB_GAIN, p.Gain)
		set(C.AL_EAXREVERB_GAINHF, p.GainHF)
		set(C.AL_EAXREVERB_DECAY_TIME, p.DecayTime)
		set(C.AL_EAXREVERB_DECAY_HFRATIO, p.DecayHFRatio)
		set(C.AL_EAXREVERB_REFLECTIONS_GAIN, p.ReflectionsGain)
		set(C.AL_EAXREVERB_REFLECTIONS_DELAY, p.ReflectionsDelay)
		set(C.AL_EAXREVERB_LATE_REVERB_GAIN, p.LateReverbGain)
		set(C.AL_EAXREVERB_LATE_REVERB_DELAY, p.LateReverbDelay)
		set(C.AL_EAXREVERB_ROOM_ROLLOFF_FACTOR, p.RoomRolloffFactor)
		set(C.AL_EAXREVERB_AIR_ABSORPTION_GAINHF, p.AirAbsorptionGainHF)

		set(C.AL_EAXREVERB_DENSITY, p.Density)
		set(C.AL_EAXREVERB_GAINLF, p.GainLF)
		set(C.AL_EAXREVERB_DECAY_LFRATIO, p.DecayLFRatio)
		set(C.AL_EAXREVERB_ECHO_TIME, p.EchoTime)
		set(C.AL_EAXREVERB_ECHO_DEPTH, p.EchoDepth)
		set(C.AL_EAXREVERB_MODULATION_TIME, p.ModulationTime)
		set(C.AL_EAXREVERB_MODULATION_DEPTH, p.ModulationDepth)
		set(C.AL_EAXREVERB_HFREFERENCE, p.HFReference)
		set(C.AL_EAXREVERB_LFREFERENCE, p.LFReference)
		limit := C.ALint(0)
		if p.DecayHFLimit {
			limit = 1
		}
		e.procs.effectI(e.id, C.AL_EAXREVERB_DECAY_HFLIMIT, limit)
	default:
		return device.ErrUnsupported
	}
	return checkErr("alEffectf(reverb params)")
}

func (e *Effect) Close() error {
	id := e.id
	e.procs.deleteEffectsFn(1, &id)
	return checkErr("alDeleteEffects")
}
