package soundsys

import (
	"fmt"

	"soundsys/device"
	"soundsys/reverb"
)

// SupportsEAX20Filter reports whether the open device exposes the EFX
// auxiliary-effect-slot extension. SetEAX20Filter returns an error when
// this is false.
func (e *Engine) SupportsEAX20Filter() bool {
	return e.supportsEFX.Load()
}

// SetEAX20Filter enables or disables environmental reverb and, when
// enabling, applies data's parameters to the single auxiliary effect
// slot. Disabling detaches every source's wet send by swapping the slot's
// effect back to the null effect; already-routed sources stay attached to
// the slot and simply stop receiving wet signal.
func (e *Engine) SetEAX20Filter(enable bool, data reverb.EnvironmentalReverb) error {
	ctx, err := e.context()
	if err != nil {
		return err
	}
	if !e.supportsEFX.Load() || e.auxSlot == nil {
		return fmt.Errorf("%w: EFX not supported by this backend", device.ErrUnsupported)
	}

	if !enable {
		e.reverbOn.Store(false)
		if e.nullEffect != nil {
			if err := e.auxSlot.SetEffect(e.nullEffect); err != nil {
				return fmt.Errorf("%w: disable reverb: %v", ErrDevice, err)
			}
		}
		return nil
	}

	kind := device.EffectReverb
	if e.supportsEFX.Load() {
		kind = device.EffectEAXReverb
	}
	effect, err := ctx.NewEffect(kind)
	if err != nil {
		return fmt.Errorf("%w: create reverb effect: %v", ErrDevice, err)
	}
	if err := effect.SetReverbParams(reverb.Map(data)); err != nil {
		return fmt.Errorf("%w: set reverb params: %v", ErrDevice, err)
	}
	if err := e.auxSlot.SetEffect(effect); err != nil {
		return fmt.Errorf("%w: attach reverb effect: %v", ErrDevice, err)
	}
	e.reverbOn.Store(true)
	return nil
}

// SetEAX20BufferSettings is kept for API parity with the original engine's
// per-buffer EAX send-level override. This engine routes every voice
// through the single auxiliary slot uniformly (§4.4), so there is no
// per-buffer setting to apply; it always succeeds without effect.
func (e *Engine) SetEAX20BufferSettings(handle int, data reverb.EnvironmentalReverb) error {
	return nil
}
