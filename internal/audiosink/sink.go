// Package audiosink delivers rendered mono 8-bit PCM samples (spec.md §4.5)
// to a destination: a WAV file or a live SDL queued-audio device.
package audiosink

// Sink accepts rendered samples, applying spec.md §5's short-write
// back-pressure contract: a partial write is not an error, the caller must
// retry the remainder.
type Sink interface {
	Write(samples []byte) (int, error)
}
