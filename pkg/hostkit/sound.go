package hostkit

import (
	"hostkit/pkg/hosttypes"
)

// Sound plays sounds through the sound capability.
type Sound struct {
	k *Kit
}

func (s *Sound) player(op string) (hosttypes.SoundPlayer, error) {
	p, err := use[hosttypes.SoundPlayer](s.k, op, hosttypes.CapSound)
	if err != nil {
		return nil, err
	}
	if err := tryDo(op, p.Init); err != nil {
		return nil, s.k.fail(op, err)
	}
	return p, nil
}

// Play plays the sound at rawURL. Bare paths are turned into file URLs.
func (s *Sound) Play(rawURL string) error {
	const op = "Sound.Play"
	if rawURL == "" {
		return invalid(op, "url is required")
	}
	u, err := s.k.File.GetURL(rawURL)
	if err != nil {
		return err
	}
	p, err := s.player(op)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { return p.Play(u) }); err != nil {
		return s.k.fail(op, err)
	}
	return nil
}

// Beep plays the default alert sound.
func (s *Sound) Beep() error {
	const op = "Sound.Beep"
	p, err := s.player(op)
	if err != nil {
		return err
	}
	if err := tryDo(op, p.Beep); err != nil {
		return s.k.fail(op, err)
	}
	return nil
}

// PlaySystemSound plays a named system sound.
func (s *Sound) PlaySystemSound(name string) error {
	const op = "Sound.PlaySystemSound"
	if name == "" {
		return invalid(op, "sound name is required")
	}
	p, err := s.player(op)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { return p.PlaySystemSound(name) }); err != nil {
		return s.k.fail(op, err)
	}
	return nil
}
