//go:build !portaudio

package audio

import (
	"fmt"
	"io"
	"os"
)

// BellPlayer rings the terminal bell for every clip. It is the default when
// hostkit is built without the portaudio tag.
type BellPlayer struct {
	out io.Writer
}

// NewDefaultPlayer returns the terminal bell player.
func NewDefaultPlayer() Player {
	return &BellPlayer{out: os.Stderr}
}

// Init implements Player.
func (p *BellPlayer) Init() error { return nil }

// Play implements Player.
func (p *BellPlayer) Play(clip Clip) error {
	if len(clip.Samples) == 0 {
		return nil
	}
	_, err := fmt.Fprint(p.out, "\a")
	return err
}

// Close implements Player.
func (p *BellPlayer) Close() error { return nil }
