// Package speech provides hands-free voice commands via a local Whisper model.
package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/vibetimer/internal/logger"
)

// earState represents the Ear's listening mode.
type earState int

const (
	// earDormant: passively scanning short clips for the wake word.
	earDormant earState = iota
	// earListening: wake word detected, actively capturing the command.
	earListening
)

// Default wake phrases. Whisper often mishears "coach", so a few near
// misses are included. Longer phrases come first so "hey coach next"
// strips the whole phrase rather than just "coach".
var defaultWakeWords = []string{
	"hey coach",
	"hey, coach",
	"okay coach",
	"ok coach",
	"hey couch",
	"hey koch",
	"coach",
}

// envAnnotation matches whisper environmental annotations like
// "(keyboard clicking)", "[laughter]", "(speaking French)", etc.
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z_\s]*[\)\]]`)

// timestampPrefix matches "[00:00:00.000 --> 00:00:05.000]".
var timestampPrefix = regexp.MustCompile(`^\[[0-9:.\s\->]+\]\s*`)

// TranscribeFunc records for d and returns whatever was heard.
type TranscribeFunc func(ctx context.Context, d time.Duration) string

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets how long each active-listening chunk lasts.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.recordDuration = d }
}

// WithDormantDuration sets how long each dormant wake-word recording lasts.
// Shorter = more responsive wake-word detection, but more CPU.
func WithDormantDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.dormantDuration = d }
}

// WithListenTimeout sets how long the ear stays in active listening
// mode before giving up and returning to dormant.
func WithListenTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.listenTimeout = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// WithWakeWords overrides the default wake phrases.
func WithWakeWords(words ...string) EarOption {
	return func(e *Ear) { e.wakeWords = words }
}

// WithWakeHook runs fn when the wake word is heard on its own and the ear
// starts listening for the command.
func WithWakeHook(fn func()) EarOption {
	return func(e *Ear) { e.onWake = fn }
}

// WithTranscriber replaces the Whisper recorder.
func WithTranscriber(fn TranscribeFunc) EarOption {
	return func(e *Ear) { e.transcribe = fn }
}

// Ear provides wake-word-triggered speech-to-text input.
//
// Lifecycle:
//  1. DORMANT: records short clips and checks for a wake word.
//     Everything else is silently discarded.
//  2. LISTENING: wake word heard on its own, so record shorter chunks
//     and accumulate the command until silence or timeout.
//  3. The command text (minus the wake word) is sent through the
//     channel, and the ear goes back to dormant.
//
// "hey coach pause" in one breath skips step 2.
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger
	onWake     func()
	transcribe TranscribeFunc

	wakeWords       []string
	recordDuration  time.Duration
	dormantDuration time.Duration
	listenTimeout   time.Duration
	graceEmpty      int // empty chunks tolerated before the command starts
	postSpeechEmpty int // empty chunks that end the command

	mu     sync.Mutex
	state  earState
	textCh chan string
}

// NewEar creates a wake-word-triggered voice input listener.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
func NewEar(whisperBin, modelPath string, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin:      whisperBin,
		modelPath:       modelPath,
		tempDir:         ".vibetimer-stt",
		log:             log,
		wakeWords:       defaultWakeWords,
		recordDuration:  1 * time.Second,
		dormantDuration: 2 * time.Second,
		listenTimeout:   8 * time.Second,
		graceEmpty:      4,
		postSpeechEmpty: 1,
		state:           earDormant,
		textCh:          make(chan string, 8),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.transcribe == nil {
		if _, err := exec.LookPath(e.whisperBin); err != nil {
			log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
		}
		e.transcribe = e.recordChunk
	}
	return e
}

// C returns the channel that receives command text.
func (e *Ear) C() <-chan string {
	return e.textCh
}

// Run starts the wake-word listening loop. Blocks until ctx is cancelled.
func (e *Ear) Run(ctx context.Context) {
	e.log.Info("ear: started (dormant=%s, active=%s, timeout=%s, wake=%v)",
		e.dormantDuration, e.recordDuration, e.listenTimeout, e.wakeWords)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("ear: stopped")
			return
		default:
		}

		switch e.getState() {
		case earDormant:
			e.doDormant(ctx)
		case earListening:
			e.doListening(ctx)
		}
	}
}

func (e *Ear) getState() earState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Ear) setState(s earState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// ── Dormant mode ─────────────────────────────────────────────────

// doDormant records a short clip and checks for the wake word.
func (e *Ear) doDormant(ctx context.Context) {
	text := cleanTranscription(e.transcribe(ctx, e.dormantDuration))
	if text == "" {
		return
	}
	e.log.Debug("ear/dormant: heard %q", text)

	rest, ok := e.stripWakeWord(text)
	if !ok {
		return
	}
	e.log.Info("ear: wake word detected in %q", text)

	if rest = cleanTranscription(rest); rest != "" {
		e.log.Info("ear: immediate command: %q", rest)
		e.send(ctx, rest)
		return
	}

	if e.onWake != nil {
		e.onWake()
	}
	e.setState(earListening)
}

// ── Active listening mode ────────────────────────────────────────

// doListening records chunks until the user stops talking or the listen
// timeout expires, then sends the accumulated text.
func (e *Ear) doListening(ctx context.Context) {
	defer e.setState(earDormant)
	e.log.Info("ear: listening...")

	deadline := time.Now().Add(e.listenTimeout)
	var parts []string
	emptyRuns := 0

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}

		chunk := cleanTranscription(e.transcribe(ctx, e.recordDuration))
		if chunk == "" {
			emptyRuns++
			limit := e.graceEmpty
			if len(parts) > 0 {
				limit = e.postSpeechEmpty
			}
			if emptyRuns >= limit {
				e.log.Debug("ear: silence detected, ending listen (heard_speech=%v)", len(parts) > 0)
				break
			}
			continue
		}

		emptyRuns = 0
		// The user may repeat the wake word mid-command.
		if rest, ok := e.stripWakeWord(chunk); ok {
			chunk = rest
		}
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			e.log.Debug("ear/listen: chunk: %q", chunk)
			parts = append(parts, chunk)
		}
	}

	combined := strings.TrimSpace(strings.Join(parts, " "))
	if combined == "" {
		e.log.Debug("ear: listening ended with no input")
		return
	}
	e.log.Info("ear: heard command: %q", combined)
	e.send(ctx, combined)
}

func (e *Ear) send(ctx context.Context, text string) {
	select {
	case e.textCh <- text:
	case <-ctx.Done():
	}
}

// ── Wake word matching ───────────────────────────────────────────

// stripWakeWord reports whether text contains a wake word and returns
// whatever follows it. An empty rest means the wake word was the whole
// utterance.
func (e *Ear) stripWakeWord(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range e.wakeWords {
		idx := strings.Index(lower, strings.ToLower(w))
		if idx < 0 {
			continue
		}
		rest := text[idx+len(w):]
		return strings.Trim(rest, " ,.!?\n\r\t"), true
	}
	return "", false
}

// ── Recording ────────────────────────────────────────────────────

// recordChunk does one Whisper recording cycle with the given duration and
// returns the transcribed text.
func (e *Ear) recordChunk(ctx context.Context, duration time.Duration) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		e.whisperBin,
		e.modelPath,
		e.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}

	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return ""
	}

	t.Stop()
	wg.Wait()
	return result
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// ── Transcription cleanup ────────────────────────────────────────

// hallucinations are phrases whisper produces from silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thank you":               true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"the end.":                true,
}

// cleanTranscription collapses whitespace, strips whisper artifacts like
// "[BLANK_AUDIO]" or "(music)" and timestamp prefixes, and drops
// known hallucinations.
func cleanTranscription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = timestampPrefix.ReplaceAllString(s, "")
	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	if strings.Trim(s, " ,.!?") == "" {
		return ""
	}
	return s
}
