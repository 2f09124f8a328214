// Package oalbackend is the production device.Backend: a thin cgo binding
// to OpenAL (al.h/alc.h) plus the EFX extension (efx.h), grounded directly
// on the original engine's s_oal driver. It is the "OpenAL" backend
// soundsys.Describe() advertises.
package oalbackend

/*
#cgo LDFLAGS: -lopenal
#include <stdlib.h>
#include <string.h>
#include <AL/al.h>
#include <AL/alc.h>

static ALCdevice* oal_open_device(void) {
	return alcOpenDevice(NULL);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"soundsys/device"
	"soundsys/wavefmt"
)

// Backend opens an OpenAL device/context pair.
type Backend struct{}

// New returns the OpenAL backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Describe() string { return "OpenAL" }

func (b *Backend) OpenContext(format wavefmt.Format) (device.Context, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("oalbackend: %w", err)
	}

	dev := C.oal_open_device()
	if dev == nil {
		return nil, fmt.Errorf("oalbackend: alcOpenDevice failed")
	}

	ctx := C.alcCreateContext(dev, nil)
	if ctx == nil {
		C.alcCloseDevice(dev)
		return nil, fmt.Errorf("oalbackend: alcCreateContext failed")
	}

	if C.alcMakeContextCurrent(ctx) == C.ALC_FALSE {
		C.alcDestroyContext(ctx)
		C.alcCloseDevice(dev)
		return nil, fmt.Errorf("oalbackend: alcMakeContextCurrent failed")
	}

	efx := hasEFXSupport(dev)

	c := &Context{
		device:   dev,
		alcCtx:   ctx,
		format:   format,
		efx:      efx,
		listener: &Listener{},
	}
	if efx {
		c.efxProcs = resolveEFXProcs()
	}
	return c, nil
}

func hasEFXSupport(dev *C.ALCdevice) bool {
	name := C.CString("ALC_EXT_EFX")
	defer C.free(unsafe.Pointer(name))
	return C.alcIsExtensionPresent(dev, (*C.ALCchar)(unsafe.Pointer(name))) == C.ALC_TRUE
}

// Context is one opened OpenAL device/context pair.
type Context struct {
	mu       sync.Mutex
	device   *C.ALCdevice
	alcCtx   *C.ALCcontext
	format   wavefmt.Format
	efx      bool
	efxProcs *efxProcs
	listener *Listener
}

func (c *Context) NewSource(spatial bool) (device.Source, error) {
	var id C.ALuint
	C.alGenSources(1, &id)
	if oalError() != 0 {
		return nil, fmt.Errorf("oalbackend: alGenSources failed")
	}
	var bufs [device.PoolSize]C.ALuint
	C.alGenBuffers(C.ALsizei(device.PoolSize), &bufs[0])
	if oalError() != 0 {
		C.alDeleteSources(1, &id)
		return nil, fmt.Errorf("oalbackend: alGenBuffers failed")
	}
	s := &Source{
		id:      id,
		spatial: spatial,
		free:    append([]C.ALuint{}, bufs[:]...),
	}
	if c.efx {
		s.efx = c.efxProcs
	}
	return s, nil
}

func (c *Context) Listener() device.Listener { return c.listener }

func (c *Context) SupportsEFX() bool { return c.efx }

func (c *Context) NewAuxEffectSlot() (device.AuxEffectSlot, error) {
	if !c.efx {
		return nil, device.ErrUnsupported
	}
	var id C.ALuint
	c.efxProcs.genAuxiliaryEffectSlots(1, &id)
	if oalError() != 0 {
		return nil, fmt.Errorf("oalbackend: alGenAuxiliaryEffectSlots failed")
	}
	return &AuxEffectSlot{id: id, procs: c.efxProcs}, nil
}

func (c *Context) NewEffect(kind device.EffectKind) (device.Effect, error) {
	if !c.efx && kind != device.EffectNull {
		return nil, device.ErrUnsupported
	}
	var id C.ALuint
	if c.efx {
		c.efxProcs.genEffectsFn(1, &id)
		if oalError() != 0 {
			return nil, fmt.Errorf("oalbackend: alGenEffects failed")
		}
	}
	e := &Effect{id: id, kind: kind, procs: c.efxProcs}
	if c.efx {
		if err := e.applyKind(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (c *Context) SetMasterGain(gain float64) error {
	C.alListenerf(C.AL_GAIN, C.ALfloat(gain))
	return checkErr("alListenerf(AL_GAIN)")
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	C.alcMakeContextCurrent(nil)
	C.alcDestroyContext(c.alcCtx)
	C.alcCloseDevice(c.device)
	return nil
}

func oalError() C.ALenum { return C.alGetError() }

func checkErr(op string) error {
	if e := C.alGetError(); e != C.AL_NO_ERROR {
		return fmt.Errorf("oalbackend: %s failed (AL error %d)", op, int(e))
	}
	return nil
}
