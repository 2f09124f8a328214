package voice

import (
	"fmt"
	"math"

	"soundsys/audioutil"
)

// rejectNaN returns an error if any of vs is NaN, per the §4.1 "Setters
// reject NaN" rule.
func rejectNaN(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) {
			return fmt.Errorf("voice: NaN parameter rejected")
		}
	}
	return nil
}

// SetPosition sets the 3D position (SpatialSource) in engine (left-handed)
// coordinates. The device submission negates z at the moment of mixing.
func (v *StreamingVoice) SetPosition(x, y, z float64) error {
	if err := rejectNaN(x, y, z); err != nil {
		return err
	}
	v.mu.Lock()
	v.position = [3]float64{x, y, z}
	v.mu.Unlock()
	return nil
}

func (v *StreamingVoice) Position() (x, y, z float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.position[0], v.position[1], v.position[2]
}

func (v *StreamingVoice) SetVelocity(x, y, z float64) error {
	if err := rejectNaN(x, y, z); err != nil {
		return err
	}
	v.mu.Lock()
	v.velocity = [3]float64{x, y, z}
	v.mu.Unlock()
	return nil
}

func (v *StreamingVoice) Velocity() (x, y, z float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.velocity[0], v.velocity[1], v.velocity[2]
}

// SetDirection sets the SpatialSource's facing direction.
func (v *StreamingVoice) SetDirection(x, y, z float64) error {
	if err := rejectNaN(x, y, z); err != nil {
		return err
	}
	v.mu.Lock()
	v.direction = [3]float64{x, y, z}
	v.mu.Unlock()
	return nil
}

// SetDistances sets the SpatialSource's min/max attenuation distances.
// Requires min < max.
func (v *StreamingVoice) SetDistances(min, max float64) error {
	if err := rejectNaN(min, max); err != nil {
		return err
	}
	if !(min < max) {
		return fmt.Errorf("voice: min distance %.3f must be less than max %.3f", min, max)
	}
	v.mu.Lock()
	v.minDistance, v.maxDistance = min, max
	v.mu.Unlock()
	return nil
}

func (v *StreamingVoice) Distances() (min, max float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.minDistance, v.maxDistance
}

// SetOrientation sets the SpatialListener's (at, up) orientation pair.
func (v *StreamingVoice) SetOrientation(atX, atY, atZ, upX, upY, upZ float64) error {
	if err := rejectNaN(atX, atY, atZ, upX, upY, upZ); err != nil {
		return err
	}
	v.mu.Lock()
	v.orientationAt = [3]float64{atX, atY, atZ}
	v.orientationUp = [3]float64{upX, upY, upZ}
	v.mu.Unlock()
	return nil
}

func (v *StreamingVoice) Orientation() (at, up [3]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.orientationAt, v.orientationUp
}

// SetDopplerFactor sets the SpatialListener's doppler factor, [0, 10].
func (v *StreamingVoice) SetDopplerFactor(factor float64) error {
	if err := rejectNaN(factor); err != nil {
		return err
	}
	if factor < 0 {
		factor = 0
	}
	if factor > 10 {
		factor = 10
	}
	v.mu.Lock()
	v.dopplerFactor = factor
	v.mu.Unlock()
	if v.listener != nil {
		return v.listener.SetDopplerFactor(factor)
	}
	return nil
}

// SetMasterListenerVolume sets the listener-global volume in centibels.
func (v *StreamingVoice) SetMasterListenerVolume(centibels int) {
	v.mu.Lock()
	v.masterListenerVolume = clampInt(centibels, minLTVolume, maxLTVolume)
	v.mu.Unlock()
	v.applyListenerGain()
}

// SetListenerMuted mutes/unmutes the listener; muted forces gain to 0
// regardless of the configured master volume.
func (v *StreamingVoice) SetListenerMuted(muted bool) {
	v.mu.Lock()
	v.isListenerMuted = muted
	v.mu.Unlock()
	v.applyListenerGain()
}

func (v *StreamingVoice) applyListenerGain() {
	v.mu.Lock()
	muted := v.isListenerMuted
	mv := v.masterListenerVolume
	l := v.listener
	v.mu.Unlock()
	if l == nil {
		return
	}
	gain := 0.0
	if !muted {
		gain = audioutil.LTVolumeToGain(mv)
	}
	l.SetGain(gain)
}

// applyListenerTransform pushes position/velocity/orientation for the
// SpatialListener voice to the device, negating z at submission per the
// left-handed-to-right-handed coordinate conversion. The caller (Mix)
// holds v.mu.
func (v *StreamingVoice) applyListenerTransform() error {
	l := v.listener
	pos, vel := v.position, v.velocity
	at, up := v.orientationAt, v.orientationUp
	if l == nil {
		return nil
	}
	if err := l.SetPosition(pos[0], pos[1], -pos[2]); err != nil {
		return err
	}
	if err := l.SetVelocity(vel[0], vel[1], -vel[2]); err != nil {
		return err
	}
	return l.SetOrientation(at[0], at[1], -at[2], up[0], up[1], -up[2])
}

// applySourceTransform pushes position/velocity/direction for a
// SpatialSource voice to the device, negating z at submission. The caller
// (Mix) holds v.mu.
func (v *StreamingVoice) applySourceTransform() error {
	src := v.src
	pos, vel, dir := v.position, v.velocity, v.direction
	minD, maxD := v.minDistance, v.maxDistance
	if src == nil {
		return nil
	}
	if err := src.SetPosition(pos[0], pos[1], -pos[2]); err != nil {
		return err
	}
	if err := src.SetVelocity(vel[0], vel[1], -vel[2]); err != nil {
		return err
	}
	if err := src.SetDirection(dir[0], dir[1], -dir[2]); err != nil {
		return err
	}
	if maxD > minD {
		return src.SetDistances(minD, maxD)
	}
	return nil
}
