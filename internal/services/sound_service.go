package services

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"hostkit/internal/audio"
	"hostkit/pkg/hosttypes"
)

type systemTone struct {
	freq float64
	dur  time.Duration
}

// systemSounds maps event names to generated tones. Other names are played
// as WAV file paths.
var systemSounds = map[string][]systemTone{
	"beep":     {{880, 150 * time.Millisecond}},
	"alert":    {{660, 200 * time.Millisecond}},
	"confirm":  {{523, 120 * time.Millisecond}, {784, 120 * time.Millisecond}},
	"error":    {{220, 300 * time.Millisecond}},
	"complete": {{523, 100 * time.Millisecond}, {659, 100 * time.Millisecond}, {784, 150 * time.Millisecond}},
	"mail":     {{988, 100 * time.Millisecond}, {1319, 150 * time.Millisecond}},
}

// SoundService plays WAV files and tones through an audio.Player.
type SoundService struct {
	mu     sync.Mutex
	player audio.Player
	fs     hosttypes.FileSystem
	ready  bool
}

// NewSoundService creates the sound component. Files are read through fs.
func NewSoundService(player audio.Player, fs hosttypes.FileSystem) *SoundService {
	if player == nil {
		player = audio.NewDefaultPlayer()
	}
	return &SoundService{player: player, fs: fs}
}

// Name returns the service name "sound" for registration.
func (s *SoundService) Name() string {
	return "sound"
}

// Initialize is a no-op; the device is opened by Init.
func (s *SoundService) Initialize() error {
	return nil
}

// Init opens the output device. Repeated calls are no-ops.
func (s *SoundService) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.player.Init(); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// Play plays a WAV file. Only file URLs are supported.
func (s *SoundService) Play(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("nil sound URL")
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return hosttypes.NewError("Sound.Play", hosttypes.KindUnsupported, "scheme %q", u.Scheme)
	}
	return s.playFile(u.Path)
}

func (s *SoundService) playFile(path string) error {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	clip, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return s.play(clip)
}

func (s *SoundService) play(clips ...audio.Clip) error {
	if err := s.Init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range clips {
		if err := s.player.Play(c); err != nil {
			return err
		}
	}
	return nil
}

// Beep plays a short tone.
func (s *SoundService) Beep() error {
	return s.PlaySystemSound("beep")
}

// PlaySystemSound plays a named event sound, or a WAV file when name is a path.
func (s *SoundService) PlaySystemSound(name string) error {
	tones, ok := systemSounds[strings.ToLower(name)]
	if !ok {
		return s.playFile(hosttypes.StripFileScheme(name))
	}
	clips := make([]audio.Clip, len(tones))
	for i, t := range tones {
		clips[i] = audio.Tone(t.freq, t.dur, audio.DefaultSampleRate)
	}
	return s.play(clips...)
}

// Close releases the output device.
func (s *SoundService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil
	}
	s.ready = false
	return s.player.Close()
}
