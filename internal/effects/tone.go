// Package effects implements the side-effect ports the timer engine fires
// on boundaries: the cue sound, the haptic pulse and the wake lock.
package effects

import (
	"encoding/binary"
	"math"
	"time"
)

// Audio format shared by the tone generator and the player.
const (
	SampleRate   = 44100
	ChannelCount = 1
)

// Tone describes a repeated, decaying sine beep.
type Tone struct {
	Frequency float64       // Hz
	Beep      time.Duration // length of one beep
	Spacing   time.Duration // start-to-start distance between beeps
	Count     int
	StartGain float64
	EndGain   float64
}

// DefaultTone is the boundary cue: two 800 Hz beeps, 100 ms long, 150 ms apart.
var DefaultTone = Tone{
	Frequency: 800,
	Beep:      100 * time.Millisecond,
	Spacing:   150 * time.Millisecond,
	Count:     2,
	StartGain: 0.3,
	EndGain:   0.01,
}

// Length returns how long the whole cue lasts.
func (t Tone) Length() time.Duration {
	if t.Count <= 0 {
		return 0
	}
	return time.Duration(t.Count-1)*t.Spacing + t.Beep
}

// PCM renders the tone as signed 16-bit little-endian mono samples. The gain
// of each beep decays exponentially from StartGain to EndGain.
func (t Tone) PCM() []byte {
	total := samples(t.Length())
	beepLen := samples(t.Beep)
	buf := make([]byte, total*2)
	if beepLen == 0 {
		return buf
	}

	decay := 0.0
	if t.StartGain > 0 && t.EndGain > 0 {
		decay = math.Log(t.EndGain/t.StartGain) / float64(beepLen)
	}

	for b := 0; b < t.Count; b++ {
		offset := samples(time.Duration(b) * t.Spacing)
		for i := 0; i < beepLen && offset+i < total; i++ {
			gain := t.StartGain * math.Exp(decay*float64(i))
			v := gain * math.Sin(2*math.Pi*t.Frequency*float64(i)/SampleRate)
			binary.LittleEndian.PutUint16(buf[(offset+i)*2:], uint16(int16(v*math.MaxInt16)))
		}
	}
	return buf
}

func samples(d time.Duration) int {
	return int(d * SampleRate / time.Second)
}
