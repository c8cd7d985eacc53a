package audiosink

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"notran/internal/debug"
)

// maxQueuedFrames bounds how far SDLSink lets the device queue grow before
// it starts reporting short writes, mirroring the teacher's "keep roughly
// <= 4 frames queued" rule for queueFrameAudio.
const maxQueuedFrames = 4

// SDLSink queues rendered samples to a live SDL audio device. Grounded
// line-for-line on internal/ui/fyne_ui.go's queueFrameAudio: same
// sdl.OpenAudioDevice/PauseAudioDevice bring-up, same back-pressure check
// against sdl.GetQueuedAudioSize before calling sdl.QueueAudio.
type SDLSink struct {
	dev        sdl.AudioDeviceID
	frameBytes uint32
	logger     *debug.Logger
}

// NewSDLSink opens a mono 8-bit-unsigned-PCM audio device at sampleRate and
// unpauses it immediately, matching the teacher's bring-up order.
func NewSDLSink(sampleRate uint32, samplesPerFrame uint16, logger *debug.Logger) (*SDLSink, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("audiosink: sdl init: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  samplesPerFrame,
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("audiosink: open audio device: %w", err)
	}
	sdl.PauseAudioDevice(dev, false)

	return &SDLSink{dev: dev, frameBytes: uint32(samplesPerFrame), logger: logger}, nil
}

// Write queues samples onto the device, reporting a short write (0, nil) if
// the device is already backed up rather than blocking or erroring, so the
// caller retries per spec.md §5's back-pressure contract.
func (s *SDLSink) Write(samples []byte) (int, error) {
	if sdl.GetQueuedAudioSize(s.dev) > s.frameBytes*maxQueuedFrames {
		s.logf("audio device backed up, deferring %d bytes", len(samples))
		return 0, nil
	}
	if err := sdl.QueueAudio(s.dev, samples); err != nil {
		return 0, fmt.Errorf("audiosink: queue audio: %w", err)
	}
	return len(samples), nil
}

// Close stops and releases the audio device.
func (s *SDLSink) Close() error {
	sdl.CloseAudioDevice(s.dev)
	return nil
}

func (s *SDLSink) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.LogSystemf(debug.LogLevelWarning, format, args...)
	}
}
