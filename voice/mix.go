package voice

import (
	"io"

	"soundsys/device"
)

// Mix runs one mix pass for this voice: drains processed device buffers,
// detects end-of-stream, fills and queues as many new buffers as the pool
// allows, and starts playback if anything is ready. Returns whether the
// voice advanced (pushed or drained something); called only by the mixer
// worker under the voice list's lock.
func (v *StreamingVoice) Mix() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.status == StatusFailed {
		return false
	}
	if v.kind == SpatialListener {
		return v.mixListener()
	}

	if !v.isPlaying {
		state, err := v.src.State()
		if err != nil {
			v.fail(err)
			return false
		}
		if state == device.StatePlaying {
			if err := v.src.Pause(); err != nil {
				v.fail(err)
				return false
			}
		}
		v.status = StatusStopped
		return false
	}

	processed, err := v.src.BuffersProcessed()
	if err != nil {
		v.fail(err)
		return false
	}
	queued, err := v.src.BuffersQueued()
	if err != nil {
		v.fail(err)
		return false
	}
	if processed > 0 {
		toUnqueue := processed
		if toUnqueue > device.PoolSize {
			toUnqueue = device.PoolSize
		}
		if _, err := v.src.UnqueueProcessed(toUnqueue); err != nil {
			v.fail(err)
			return false
		}
	}

	if !v.isLooping && v.dataOffset == v.dataSize {
		if queued == 0 {
			if err := v.src.Pause(); err != nil {
				v.fail(err)
				return false
			}
			v.isPlaying = false
			v.status = StatusStopped
			return false
		}
		return true
	}

	if v.kind == SpatialSource {
		if err := v.applySourceTransform(); err != nil {
			v.fail(err)
			return false
		}
	}

	queuedThisPass := 0
	for queued+queuedThisPass < device.PoolSize {
		n, partial, err := v.fillMonoBlock()
		if err != nil {
			v.fail(err)
			return false
		}
		if n == 0 {
			break
		}

		var payload []byte
		sampleRate := v.format.SampleRate
		if v.kind == Panning && v.format.IsMono() {
			v.panToStereo(v.monoScratch[:n])
			payload = v.stereoScratch[:n*2]
		} else {
			payload = v.monoScratch[:n]
		}

		if err := v.src.QueueBuffer(payload, v.outFormat, sampleRate); err != nil {
			v.fail(err)
			return false
		}
		queuedThisPass++

		if partial {
			break
		}
	}

	if queuedThisPass > 0 {
		state, err := v.src.State()
		if err != nil {
			v.fail(err)
			return false
		}
		if state != device.StatePlaying {
			if err := v.src.Play(); err != nil {
				v.fail(err)
				return false
			}
		}
		v.status = StatusPlaying
	}

	return processed > 0 || queuedThisPass > 0
}

// mixListener has no buffer pool to drain or fill; it simply pushes the
// current position/velocity/orientation to the device every pass.
func (v *StreamingVoice) mixListener() bool {
	if err := v.applyListenerTransform(); err != nil {
		v.fail(err)
		return false
	}
	return false
}

// fillMonoBlock pulls up to mixSizeBytes of native-format PCM into
// monoScratch, advancing dataOffset (and wrapping/padding as needed).
// Returns the number of bytes filled and whether the block was short
// (signalling the fill loop to stop after this iteration).
func (v *StreamingVoice) fillMonoBlock() (n int, partial bool, err error) {
	align := v.format.BlockAlign()
	want := v.mixSizeBytes
	buf := v.monoScratch[:want]
	filled := 0

	for filled < want {
		loopLimit := v.dataSize
		if v.isLooping && v.hasLoopBlock && v.dataOffset <= v.loopEnd {
			loopLimit = v.loopEnd
		}
		remaining := loopLimit - v.dataOffset
		if remaining <= 0 {
			if v.isLooping {
				if v.hasLoopBlock {
					v.dataOffset = v.loopBegin
				} else {
					v.dataOffset = 0
				}
				if v.decoder != nil {
					if serr := v.decoder.SeekSample(v.dataOffset / int64(align)); serr != nil {
						return filled, true, serr
					}
				}
				continue
			}
			v.padSilence(buf[filled:])
			return want, true, nil
		}

		chunk := int64(want - filled)
		if chunk > remaining {
			chunk = remaining
		}

		var got int
		switch v.storageKind {
		case StorageInternalBuffer:
			got = copy(buf[filled:filled+int(chunk)], v.data[v.dataOffset:v.dataOffset+chunk])
		case StorageDecoder:
			got, err = v.decoder.Read(buf[filled : filled+int(chunk)])
			if err != nil && err != io.EOF {
				return filled, true, err
			}
			if got == 0 {
				v.dataSize = v.dataOffset
				v.padSilence(buf[filled:])
				return want, true, nil
			}
		}

		filled += got
		v.dataOffset += int64(got)
	}

	return filled, false, nil
}

// padSilence fills buf with the format's silence byte.
func (v *StreamingVoice) padSilence(buf []byte) {
	sil := v.format.SilenceByte()
	for i := range buf {
		buf[i] = sil
	}
}

// panToStereo expands the mono samples in src into stereoScratch, applying
// gain*leftPan / gain*rightPan and clamping to the channel's signed/unsigned
// range.
func (v *StreamingVoice) panToStereo(src []byte) {
	out := v.stereoScratch
	if v.format.BitDepth == 8 {
		for i, s := range src {
			c := int(s) - 128
			l := clampByteSigned(float64(c) * v.gain * v.leftPan)
			r := clampByteSigned(float64(c) * v.gain * v.rightPan)
			out[2*i] = byte(l + 128)
			out[2*i+1] = byte(r + 128)
		}
		return
	}
	// 16-bit signed little-endian.
	n := len(src) / 2
	for i := 0; i < n; i++ {
		s := int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
		l := clampInt16(float64(s) * v.gain * v.leftPan)
		r := clampInt16(float64(s) * v.gain * v.rightPan)
		o := i * 4
		out[o] = byte(uint16(l))
		out[o+1] = byte(uint16(l) >> 8)
		out[o+2] = byte(uint16(r))
		out[o+3] = byte(uint16(r) >> 8)
	}
}

func clampByteSigned(v float64) int {
	i := int(v)
	if i < -128 {
		return -128
	}
	if i > 127 {
		return 127
	}
	return i
}

func clampInt16(v float64) int16 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}
	return int16(v)
}
