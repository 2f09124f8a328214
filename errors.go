package soundsys

import "errors"

// Sentinel error kinds, per §7. Engine operations wrap one of these via %w,
// so callers can errors.Is against the kind without caring about the
// specific message. The exceptions: SetEAX20Filter on a backend without EFX
// wraps device.ErrUnsupported, and release calls such as ReleaseSample
// return the device's own error as is. Methods called directly on a
// voice.StreamingVoice return the voice package's plain errors.
var (
	// ErrConfiguration covers a rejected wave format, a non-mono spatial
	// source, or an invalid parameter (NaN, inverted distances,
	// out-of-range handle/index). The voice or engine remains usable.
	ErrConfiguration = errors.New("soundsys: configuration error")

	// ErrDevice covers a failed device call. The voice that raised it is
	// left sticky Failed; subsequent operations on it are no-ops until
	// re-opened.
	ErrDevice = errors.New("soundsys: device error")

	// ErrStorage covers a file-open, decoder-init, or decoder-read failure
	// during Open. The voice is left closed.
	ErrStorage = errors.New("soundsys: storage error")

	// ErrInvalidHandle is returned by every handle-indexed operation when
	// the handle does not name a currently allocated voice.
	ErrInvalidHandle = errors.New("soundsys: invalid handle")

	// ErrNoListener is returned by 3D-listener operations when no listener
	// is currently open.
	ErrNoListener = errors.New("soundsys: no listener open")

	// ErrNotOpen is returned by any operation that requires WaveOutOpen to
	// have been called first.
	ErrNotOpen = errors.New("soundsys: device not open")
)
