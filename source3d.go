package soundsys

import (
	"fmt"

	"soundsys/voice"
	"soundsys/wavefmt"
)

// Allocate3DSampleHandle allocates a spatial source voice and returns its
// handle. Mirrors AllocateSample but registers into the spatial list
// rather than the panning list once opened.
func (e *Engine) Allocate3DSampleHandle() (int, error) {
	ctx, err := e.context()
	if err != nil {
		return 0, err
	}
	v := voice.New(ctx, voice.SpatialSource)
	h := e.sources3D.allocate(v)
	return h, nil
}

// Release3DSampleHandle destroys the device resources behind handle and
// removes it from the table.
func (e *Engine) Release3DSampleHandle(handle int) error {
	v, ok := e.sources3D.release(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	e.spatial.Remove(v)
	return v.Destroy()
}

// Init3DSampleFromAddress installs an already-decoded mono PCM buffer as
// the source's storage.
func (e *Engine) Init3DSampleFromAddress(handle int, data []byte, format wavefmt.Format, sampleRate int) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := v.Open(voice.MemoryPcm{Bytes: data, Format: format}, sampleRate, e.reverbRoute); err != nil {
		return classifyVoiceErr(v, err)
	}
	e.spatial.Add(v)
	e.worker.Notify()
	return nil
}

// Init3DSampleFromFile fully decodes the mono file at path into memory and
// installs it as the source's storage.
func (e *Engine) Init3DSampleFromFile(handle int, path string, decoder voice.DecoderFactory, sampleRate int) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	data, err := readFileOrWrap(path)
	if err != nil {
		return err
	}
	if err := v.Open(voice.MappedBuffer{Bytes: data, Decoder: decoder}, sampleRate, e.reverbRoute); err != nil {
		return classifyVoiceErr(v, err)
	}
	e.spatial.Add(v)
	e.worker.Notify()
	return nil
}

func (e *Engine) Start3DSample(handle int) error {
	return e.source3DOp(handle, (*voice.StreamingVoice).Start)
}
func (e *Engine) Stop3DSample(handle int) error {
	return e.source3DOp(handle, (*voice.StreamingVoice).Stop)
}
func (e *Engine) Resume3DSample(handle int) error {
	return e.source3DOp(handle, (*voice.StreamingVoice).Resume)
}
func (e *Engine) End3DSample(handle int) error {
	return e.source3DOp(handle, (*voice.StreamingVoice).Close)
}

func (e *Engine) source3DOp(handle int, op func(*voice.StreamingVoice) error) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := op(v); err != nil {
		return classifyVoiceErr(v, err)
	}
	e.worker.Notify()
	return nil
}

func (e *Engine) Get3DSampleStatus(handle int) (voice.Status, error) {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return voice.StatusNone, fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	return v.Status(), nil
}

func (e *Engine) Set3DSampleVolume(handle int, centibels int) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	v.SetVolume(centibels)
	return nil
}

func (e *Engine) Get3DSampleVolume(handle int) (int, error) {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return 0, fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	return v.Volume(), nil
}

func (e *Engine) Set3DSampleDistances(handle int, min, max float64) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := v.SetDistances(min, max); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (e *Engine) Set3DSampleLoop(handle int, enable bool) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	v.SetLoop(enable)
	return nil
}

func (e *Engine) Set3DSampleLoopBlock(handle int, begin, end int64, enable bool) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	v.SetLoopBlock(begin, end, enable)
	return nil
}

func (e *Engine) Set3DSampleMsPosition(handle int, ms int64) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := v.SetMsPosition(ms); err != nil {
		return classifyVoiceErr(v, err)
	}
	return nil
}

func (e *Engine) Set3DPosition(handle int, x, y, z float64) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := v.SetPosition(x, y, z); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (e *Engine) Set3DVelocity(handle int, x, y, z float64) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := v.SetVelocity(x, y, z); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (e *Engine) Set3DSourceOrientation(handle int, x, y, z float64) error {
	v, ok := e.sources3D.get(handle)
	if !ok {
		return fmt.Errorf("%w: 3D sample %d", ErrInvalidHandle, handle)
	}
	if err := v.SetDirection(x, y, z); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
