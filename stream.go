package soundsys

import (
	"fmt"

	"soundsys/voice"
)

// OpenStream allocates a panning voice that streams its PCM incrementally
// from path starting at offset, rather than decoding the whole file up
// front, and registers it in the mixer's streaming-voice list. It returns
// a handle for every subsequent streaming operation.
func (e *Engine) OpenStream(path string, offset int64, decoder voice.DecoderFactory, sampleRate int) (int, error) {
	ctx, err := e.context()
	if err != nil {
		return 0, err
	}
	v := voice.New(ctx, voice.Panning)
	if err := v.Open(voice.FileByOffset{Path: path, Offset: offset, Decoder: decoder}, sampleRate, e.reverbRoute); err != nil {
		v.Destroy()
		return 0, classifyVoiceErr(v, err)
	}
	h := e.streamVoice.allocate(v)
	e.streams.Add(v)
	e.worker.Notify()
	return h, nil
}

// CloseStream stops and destroys the stream behind handle and removes it
// from the table.
func (e *Engine) CloseStream(handle int) error {
	v, ok := e.streamVoice.release(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	e.streams.Remove(v)
	return v.Destroy()
}

func (e *Engine) StartStream(handle int) error { return e.streamOp(handle, (*voice.StreamingVoice).Start) }
func (e *Engine) StopStream(handle int) error  { return e.streamOp(handle, (*voice.StreamingVoice).Stop) }

// PauseStream pauses the stream when on is true, resumes it otherwise.
func (e *Engine) PauseStream(handle int, on bool) error {
	if on {
		return e.streamOp(handle, (*voice.StreamingVoice).Pause)
	}
	return e.streamOp(handle, (*voice.StreamingVoice).Resume)
}

func (e *Engine) streamOp(handle int, op func(*voice.StreamingVoice) error) error {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	if err := op(v); err != nil {
		return classifyVoiceErr(v, err)
	}
	e.worker.Notify()
	return nil
}

func (e *Engine) StreamStatus(handle int) (voice.Status, error) {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return voice.StatusNone, fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	return v.Status(), nil
}

func (e *Engine) SetStreamVolume(handle int, centibels int) error {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	v.SetVolume(centibels)
	return nil
}

func (e *Engine) StreamVolume(handle int) (int, error) {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return 0, fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	return v.Volume(), nil
}

func (e *Engine) SetStreamPan(handle int, pan int) error {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	v.SetPan(pan)
	return nil
}

func (e *Engine) StreamPan(handle int) (int, error) {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return 0, fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	return v.Pan(), nil
}

func (e *Engine) SetStreamLoop(handle int, enable bool) error {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	v.SetLoop(enable)
	return nil
}

func (e *Engine) SetStreamMsPosition(handle int, ms int64) error {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	if err := v.SetMsPosition(ms); err != nil {
		return classifyVoiceErr(v, err)
	}
	return nil
}

func (e *Engine) StreamUserData(handle, index int) (int32, error) {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return 0, fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	return v.UserData(index), nil
}

func (e *Engine) SetStreamUserData(handle, index int, value int32) error {
	v, ok := e.streamVoice.get(handle)
	if !ok {
		return fmt.Errorf("%w: stream %d", ErrInvalidHandle, handle)
	}
	v.SetUserData(index, value)
	return nil
}
