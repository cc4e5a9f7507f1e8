// Package audio renders tones and 16-bit PCM WAV data for the native sound service.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultSampleRate is used for generated tones.
const DefaultSampleRate = 44100

// Player plays sample buffers on an output device.
type Player interface {
	Init() error
	Play(clip Clip) error
	Close() error
}

// Clip is a mono or interleaved buffer of samples in [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate float64
	Channels   int
}

// Duration returns the playing time of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := float64(len(c.Samples)) / float64(c.Channels)
	return time.Duration(frames / c.SampleRate * float64(time.Second))
}

// Tone generates a sine wave with a short fade in and out to avoid clicks.
func Tone(freq float64, d time.Duration, sampleRate float64) Clip {
	n := int(sampleRate * d.Seconds())
	samples := make([]float32, n)
	fade := int(sampleRate * 0.005)
	for i := range samples {
		amp := 0.5
		if fade > 0 {
			if i < fade {
				amp *= float64(i) / float64(fade)
			} else if n-i < fade {
				amp *= float64(n-i) / float64(fade)
			}
		}
		samples[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return Clip{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

// DecodeWAV parses a PCM16 WAV file.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) < 44 {
		return Clip{}, fmt.Errorf("file too small to be a valid WAV")
	}
	if string(data[0:4]) != "RIFF" {
		return Clip{}, fmt.Errorf("not a valid RIFF file")
	}
	if string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("not a valid WAVE file")
	}

	var (
		format     uint16
		channels   uint16
		sampleRate uint32
		bits       uint16
		pcm        []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + chunkSize
		if end > len(data) {
			end = len(data)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+16 > len(data) {
				return Clip{}, fmt.Errorf("truncated fmt chunk")
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			pcm = data[body:end]
		}

		pos = body + chunkSize
		if pos%2 != 0 {
			pos++
		}
	}

	if sampleRate == 0 || channels == 0 {
		return Clip{}, fmt.Errorf("missing fmt chunk")
	}
	if format != 1 || bits != 16 {
		return Clip{}, fmt.Errorf("unsupported WAV encoding: format %d, %d bits", format, bits)
	}
	if pcm == nil {
		return Clip{}, fmt.Errorf("missing data chunk")
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
		samples[i] = float32(s) / 32768.0
	}
	return Clip{Samples: samples, SampleRate: float64(sampleRate), Channels: int(channels)}, nil
}

// EncodeWAV renders a clip as PCM16 WAV. It is the inverse of DecodeWAV.
func EncodeWAV(c Clip) []byte {
	dataSize := len(c.Samples) * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(c.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(c.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(c.SampleRate)*uint32(c.Channels)*2)
	binary.LittleEndian.PutUint16(buf[32:34], uint16(c.Channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range c.Samples {
		v := int16(math.Max(-1, math.Min(1, float64(s))) * 32767)
		binary.LittleEndian.PutUint16(buf[44+2*i:], uint16(v))
	}
	return buf
}

// RecordingPlayer keeps every clip instead of playing it.
type RecordingPlayer struct {
	mu          sync.Mutex
	initialized bool
	clips       []Clip
}

// NewRecordingPlayer creates a silent player.
func NewRecordingPlayer() *RecordingPlayer {
	return &RecordingPlayer{}
}

// Init implements Player.
func (p *RecordingPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = true
	return nil
}

// Play implements Player.
func (p *RecordingPlayer) Play(clip Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("player not initialized")
	}
	p.clips = append(p.clips, clip)
	return nil
}

// Close implements Player.
func (p *RecordingPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	return nil
}

// Clips returns the recorded clips.
func (p *RecordingPlayer) Clips() []Clip {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Clip, len(p.clips))
	copy(out, p.clips)
	return out
}
