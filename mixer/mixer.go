// Package mixer implements the single background worker thread that
// advances every voice: three independently-locked voice lists, a
// condition-variable wakeup/idle protocol, and a bounded idle sleep when
// voices are playing but nothing moved. Grounded on the teacher's
// goroutine-plus-WaitGroup shutdown discipline in client/audio.go
// (captureLoop/playbackLoop + ae.wg/ae.stopCh), generalized from one fixed
// pair of loops into a single worker iterating three caller-supplied lists.
package mixer

import (
	"sync"
	"time"

	"soundsys/voice"
)

// idleSleep is how long the worker sleeps between passes when at least one
// voice is still playing but no voice advanced this pass.
const idleSleep = 10 * time.Millisecond

// List is one of the three voice-kind lists the worker iterates, each
// protected by its own mutex per the concurrency model's "samples →
// spatial → streams" lock discipline (never held simultaneously).
type List struct {
	mu     sync.Mutex
	voices []*voice.StreamingVoice
}

// Add appends v to the list. Safe to call from any goroutine.
func (l *List) Add(v *voice.StreamingVoice) {
	l.mu.Lock()
	l.voices = append(l.voices, v)
	l.mu.Unlock()
}

// Remove deletes v from the list, if present.
func (l *List) Remove(v *voice.StreamingVoice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.voices {
		if x == v {
			l.voices = append(l.voices[:i], l.voices[i+1:]...)
			return
		}
	}
}

// mixAll calls Mix on every voice in the list under the list's lock,
// returning the number of voices that advanced and the number of voices
// that are playing (to drive the worker's idle/sleep decision).
func (l *List) mixAll() (advanced, playing int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, v := range l.voices {
		if v.IsPlaying() {
			playing++
		}
		if v.Mix() {
			advanced++
		}
	}
	return advanced, playing
}

// Worker is the single dedicated mixing thread. It owns no voice state
// directly — Panning, Spatial and Streams are supplied by the façade — and
// communicates with API callers only through the three lists' mutexes and
// the Notify/Wakeup condition-variable flag.
type Worker struct {
	Panning *List
	Spatial *List
	Streams *List

	cvMu    sync.Mutex
	cv      *sync.Cond
	flag    bool
	stop    bool
	stopped chan struct{}
}

// NewWorker constructs a Worker over the three supplied lists. Call Start
// to begin mixing.
func NewWorker(panning, spatial, streams *List) *Worker {
	w := &Worker{
		Panning: panning,
		Spatial: spatial,
		Streams: streams,
		stopped: make(chan struct{}),
	}
	w.cv = sync.NewCond(&w.cvMu)
	return w
}

// Notify wakes the worker if it is blocked idle. Called by every API
// operation that can alter playing state (open/start/stop/resume/pause/
// close), per §4.2's wakeup protocol.
func (w *Worker) Notify() {
	w.cvMu.Lock()
	w.flag = true
	w.cv.Signal()
	w.cvMu.Unlock()
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop sets the cancellation flag, wakes the worker if idle, and blocks
// until it has exited.
func (w *Worker) Stop() {
	w.cvMu.Lock()
	w.stop = true
	w.flag = true
	w.cv.Signal()
	w.cvMu.Unlock()
	<-w.stopped
}

func (w *Worker) run() {
	defer close(w.stopped)
	for {
		if w.shouldStop() {
			return
		}

		aP, pP := w.Panning.mixAll()
		aS, pS := w.Spatial.mixAll()
		aT, pT := w.Streams.mixAll()

		advanced := aP + aS + aT
		playing := pP + pS + pT

		if w.shouldStop() {
			return
		}

		switch {
		case playing == 0:
			w.waitForWork()
		case advanced == 0:
			time.Sleep(idleSleep)
		default:
			// Work is flowing; loop again immediately.
		}
	}
}

func (w *Worker) shouldStop() bool {
	w.cvMu.Lock()
	defer w.cvMu.Unlock()
	return w.stop
}

// waitForWork blocks on the condition variable until Notify sets the flag
// (or shutdown requests it to unblock), then clears the flag.
func (w *Worker) waitForWork() {
	w.cvMu.Lock()
	for !w.flag {
		w.cv.Wait()
	}
	w.flag = false
	w.cvMu.Unlock()
}
