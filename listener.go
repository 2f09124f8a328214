package soundsys

import (
	"fmt"

	"soundsys/voice"
)

// Open3DListener installs the single 3D listener voice and adds it to the
// mixer's spatial list so its transform is pushed to the device every mix
// pass. Only one listener may be open at a time; a second call is a no-op.
func (e *Engine) Open3DListener() error {
	ctx, err := e.context()
	if err != nil {
		return err
	}

	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	if e.listener != nil {
		return nil
	}
	l := voice.New(ctx, voice.SpatialListener)
	if l.IsFailed() {
		return fmt.Errorf("%w: %s", ErrDevice, l.LastError())
	}
	e.listener = l
	e.spatial.Add(l)
	e.worker.Notify()
	return nil
}

// Close3DListener removes and destroys the listener voice, if one is open.
func (e *Engine) Close3DListener() error {
	e.listenerMu.Lock()
	l := e.listener
	e.listener = nil
	e.listenerMu.Unlock()
	if l == nil {
		return nil
	}
	e.spatial.Remove(l)
	return l.Destroy()
}

func (e *Engine) listenerVoice() (*voice.StreamingVoice, error) {
	e.listenerMu.Lock()
	l := e.listener
	e.listenerMu.Unlock()
	if l == nil {
		return nil, ErrNoListener
	}
	return l, nil
}

func (e *Engine) SetListenerPosition(x, y, z float64) error {
	l, err := e.listenerVoice()
	if err != nil {
		return err
	}
	if err := l.SetPosition(x, y, z); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (e *Engine) ListenerPosition() (x, y, z float64, err error) {
	l, err := e.listenerVoice()
	if err != nil {
		return 0, 0, 0, err
	}
	x, y, z = l.Position()
	return x, y, z, nil
}

func (e *Engine) SetListenerVelocity(x, y, z float64) error {
	l, err := e.listenerVoice()
	if err != nil {
		return err
	}
	if err := l.SetVelocity(x, y, z); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (e *Engine) ListenerVelocity() (x, y, z float64, err error) {
	l, err := e.listenerVoice()
	if err != nil {
		return 0, 0, 0, err
	}
	x, y, z = l.Velocity()
	return x, y, z, nil
}

// Set3DOrientation sets the listener's (at, up) orientation vector pair.
func (e *Engine) Set3DOrientation(atX, atY, atZ, upX, upY, upZ float64) error {
	l, err := e.listenerVoice()
	if err != nil {
		return err
	}
	if err := l.SetOrientation(atX, atY, atZ, upX, upY, upZ); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// Get3DOrientation returns the listener's (at, up) orientation vector pair.
func (e *Engine) Get3DOrientation() (at, up [3]float64, err error) {
	l, err := e.listenerVoice()
	if err != nil {
		return [3]float64{}, [3]float64{}, err
	}
	at, up = l.Orientation()
	return at, up, nil
}

// SetListenerDoppler sets the engine-wide doppler factor, [0, 10].
func (e *Engine) SetListenerDoppler(factor float64) error {
	l, err := e.listenerVoice()
	if err != nil {
		return err
	}
	if err := l.SetDopplerFactor(factor); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// SetMasterListenerVolume sets the listener's overall gain in centibels,
// applied on top of each spatial source's own volume.
func (e *Engine) SetMasterListenerVolume(centibels int) error {
	l, err := e.listenerVoice()
	if err != nil {
		return err
	}
	l.SetMasterListenerVolume(centibels)
	return nil
}
