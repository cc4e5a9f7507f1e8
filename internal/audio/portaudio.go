//go:build portaudio

package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// PortAudioPlayer writes clips to the default output device.
type PortAudioPlayer struct {
	mu          sync.Mutex
	initialized bool
}

// NewDefaultPlayer returns the PortAudio backed player.
func NewDefaultPlayer() Player {
	return &PortAudioPlayer{}
}

// Init initializes PortAudio once.
func (p *PortAudioPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	p.initialized = true
	return nil
}

// Play blocks until the clip has been written to the device.
func (p *PortAudioPlayer) Play(clip Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("player not initialized")
	}

	channels := clip.Channels
	if channels <= 0 {
		channels = 1
	}
	buffer := make([]float32, framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, clip.SampleRate, framesPerBuffer, &buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for pos := 0; pos < len(clip.Samples); pos += len(buffer) {
		for i := range buffer {
			if pos+i < len(clip.Samples) {
				buffer[i] = clip.Samples[pos+i]
			} else {
				buffer[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}
	return nil
}

// Close terminates PortAudio.
func (p *PortAudioPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}
