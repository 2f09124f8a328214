// Package wavefmt describes the single PCM wave format the mixing engine
// accepts and the byte-alignment arithmetic every voice cursor is built on.
package wavefmt

import "fmt"

// Format describes one PCM stream: tag is always PCM (no compressed tags
// make it past the decoder boundary — compression is unwrapped before the
// mixer ever sees a Format).
type Format struct {
	ChannelCount int // 1 or 2
	BitDepth     int // 8 or 16
	SampleRate   int // > 0
}

// BlockAlign returns channel_count * (bit_depth/8), the byte stride of one
// sample frame. Every offset a voice stores is a multiple of this.
func (f Format) BlockAlign() int {
	return f.ChannelCount * (f.BitDepth / 8)
}

// Validate rejects anything outside the documented input ranges: any tag
// other than PCM is rejected upstream by the caller before a Format is ever
// constructed, so Validate only checks channel count, bit depth and rate.
func (f Format) Validate() error {
	if f.ChannelCount != 1 && f.ChannelCount != 2 {
		return fmt.Errorf("wavefmt: channel count %d not in {1,2}", f.ChannelCount)
	}
	if f.BitDepth != 8 && f.BitDepth != 16 {
		return fmt.Errorf("wavefmt: bit depth %d not in {8,16}", f.BitDepth)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("wavefmt: sample rate %d must be > 0", f.SampleRate)
	}
	return nil
}

// IsMono reports whether f has exactly one channel.
func (f Format) IsMono() bool { return f.ChannelCount == 1 }

// SilenceByte returns the byte value that represents silence for f's bit
// depth: 0x80 for unsigned 8-bit PCM, 0x00 for signed 16-bit PCM.
func (f Format) SilenceByte() byte {
	if f.BitDepth == 8 {
		return 0x80
	}
	return 0x00
}

// AlignDown rounds byteOffset down to the nearest multiple of BlockAlign.
func (f Format) AlignDown(byteOffset int) int {
	ba := f.BlockAlign()
	if ba <= 0 {
		return byteOffset
	}
	return (byteOffset / ba) * ba
}
