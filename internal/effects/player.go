package effects

import (
	"bytes"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// Compile-time interface check.
var _ domain.CuePlayer = (*Player)(nil)

// Player plays the cue through the system audio device via oto.
type Player struct {
	ctx    *oto.Context
	log    *logger.Logger
	pcm    []byte
	mu     sync.Mutex
	active *oto.Player // most recent cue, nil before the first
}

// NewPlayer initializes the system audio context and pre-renders tone.
// Returns an error if the audio device is unavailable.
func NewPlayer(tone Tone, log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d, cue=%s)", SampleRate, ChannelCount, tone.Length())
	return &Player{ctx: ctx, log: log, pcm: tone.PCM()}, nil
}

// PlayCue starts the cue and returns at once. A cue still sounding is cut
// off by the new one.
func (p *Player) PlayCue() error {
	player := p.ctx.NewPlayer(bytes.NewReader(p.pcm))

	p.mu.Lock()
	prev := p.active
	p.active = player
	p.mu.Unlock()

	if prev != nil {
		prev.Pause()
		if err := prev.Close(); err != nil {
			p.log.Debug("audio player: closing previous cue: %v", err)
		}
	}

	player.Play()
	p.log.Debug("audio player: cue started (%d bytes)", len(p.pcm))
	return nil
}

// Close stops any sounding cue and suspends the audio context.
func (p *Player) Close() error {
	p.mu.Lock()
	active := p.active
	p.active = nil
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		_ = active.Close()
	}
	return p.ctx.Suspend()
}
