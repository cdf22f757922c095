// VibeTimer is an interval timer and rep counter for the terminal.
//
// Usage:
//
//	vibetimer [-verbose] [-quiet] [-data-dir dir] [-voice] [-metrics-addr :9090]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/vibetimer/internal/conversation"
	"github.com/hammamikhairi/vibetimer/internal/counter"
	"github.com/hammamikhairi/vibetimer/internal/display"
	"github.com/hammamikhairi/vibetimer/internal/domain"
	"github.com/hammamikhairi/vibetimer/internal/effects"
	"github.com/hammamikhairi/vibetimer/internal/engine"
	"github.com/hammamikhairi/vibetimer/internal/logger"
	"github.com/hammamikhairi/vibetimer/internal/metrics"
	"github.com/hammamikhairi/vibetimer/internal/preferences"
	"github.com/hammamikhairi/vibetimer/internal/preset"
	"github.com/hammamikhairi/vibetimer/internal/profile"
	"github.com/hammamikhairi/vibetimer/internal/speech"
	"github.com/hammamikhairi/vibetimer/internal/storage"
	"github.com/hammamikhairi/vibetimer/internal/timer"
)

// Environment overrides, read after .env is loaded.
const (
	envDataDir      = "VIBETIMER_DATA_DIR"
	envMetricsAddr  = "VIBETIMER_METRICS_ADDR"
	envWhisperBin   = "WHISPER_BIN"
	envWhisperModel = "WHISPER_MODEL"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".vibetimer/logs/vibetimer.log", "file to write logs to (use \"stderr\" to log to console)")
	dataDir := flag.String("data-dir", envOr(envDataDir, defaultDataDir()), "directory for profiles, settings and the counter")
	tick := flag.Duration("tick", 100*time.Millisecond, "how often the running timer is checked")
	idleNudge := flag.Duration("idle-nudge", 2*time.Minute, "remind after the timer has been paused this long (0 disables)")
	metricsAddr := flag.String("metrics-addr", os.Getenv(envMetricsAddr), "serve Prometheus metrics on this address (empty disables)")
	voice := flag.Bool("voice", false, "enable voice commands via local Whisper STT")
	whisperBin := flag.String("whisper-bin", envOr(envWhisperBin, "whisper-cli"), "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", envOr(envWhisperModel, "bin/ggml-small.bin"), "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 2, "seconds per voice recording chunk")
	flag.Parse()

	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Third-party libs (audio, whisper) log through the std logger.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage.
	store, files := openStore(*dataDir, log)

	prefs := preferences.NewManager(store, log.Named("prefs"))
	if err := prefs.Load(ctx); err != nil {
		log.Warn("loading settings, using defaults: %v", err)
	}

	// Effects, gated by the settings.
	var cue domain.CuePlayer
	player, err := effects.NewPlayer(effects.DefaultTone, log.Named("audio"))
	if err != nil {
		log.Error("audio player init failed, cues are silent: %v", err)
		cue = effects.NewNoOp(log.Named("audio"))
	} else {
		cue = player
		defer player.Close()
	}
	vibrator := effects.NewTerminalVibrator(os.Stdout, log.Named("haptics"))
	wake := effects.NewInhibitLock(log.Named("wakelock"))
	gate := effects.NewGate(prefs, cue, vibrator, wake, log.Named("effects"))
	prefs.OnChange(gate.Apply)

	// Timer.
	eng := engine.New(log.Named("engine"),
		engine.WithCuePlayer(gate),
		engine.WithVibrator(gate),
		engine.WithWakeLock(gate),
	)

	runnerOpts := []timer.Option{timer.WithTickInterval(*tick)}
	var reg *metrics.Registry
	if *metricsAddr != "" {
		reg, err = metrics.New(log.Named("metrics"))
		if err != nil {
			log.Error("metrics disabled: %v", err)
		} else {
			runnerOpts = append(runnerOpts, timer.WithRecorder(reg))
		}
	}
	runner := timer.New(eng, log.Named("runner"), runnerOpts...)

	// Counter, profiles and presets.
	tally := counter.New(store, log.Named("counter"), counter.WithHaptics(vibrator, prefs))
	if err := tally.Load(ctx); err != nil {
		log.Warn("loading counter: %v", err)
	}
	profiles := profile.NewService(store, store, log.Named("profiles"))
	presets := preset.NewCatalog(log.Named("presets"))

	// Display.
	board := newStatusBoard(tally, prefs)
	ui := display.NewUI(board)
	notifier := conversation.NewCLINotifier(log.Named("notify"), ui.Printf)

	// Voice input.
	var ear *speech.Ear
	if *voice {
		if _, err := os.Stat(*whisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", *whisperModel)
			os.Exit(1)
		}
		ear = speech.NewEar(*whisperBin, *whisperModel, log.Named("ear"),
			speech.WithTempDir(filepath.Join(*dataDir, "stt")),
			speech.WithRecordDuration(time.Duration(*recordSecs)*time.Second),
			speech.WithWakeHook(func() { ui.PrintHint("Listening...") }),
		)
		log.Info("voice input enabled (bin=%s, model=%s, chunk=%ds)", *whisperBin, *whisperModel, *recordSecs)
	}

	runner.Start(ctx)
	defer runner.Stop()

	app := &cliApp{
		runner:    runner,
		profiles:  profiles,
		presets:   presets,
		counter:   tally,
		prefs:     prefs,
		parser:    conversation.NewKeywordParser(log.Named("parser")),
		notifier:  notifier,
		board:     board,
		out:       ui,
		input:     ui.InputChan(),
		log:       log,
		accel:     counter.DefaultAccelerator,
		exportDir: ".",
		now:       time.Now,
		ws:        emptyWorkspace(),
	}
	if ear != nil {
		app.voice = ear.C()
	}

	g, gctx := errgroup.WithContext(ctx)

	boardUpdates := runner.Subscribe(8)
	g.Go(func() error { return board.follow(gctx, boardUpdates) })

	if *idleNudge > 0 {
		watcher := timer.NewWatcher(runner, notifier, log.Named("watcher"), timer.WithIdleThreshold(*idleNudge))
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if files != nil {
		g.Go(func() error {
			err := files.WatchKV(gctx, func(key string) {
				reloadKey(gctx, key, prefs, tally, log)
			})
			if err != nil {
				log.Warn("settings watcher stopped: %v", err)
			}
			return nil
		})
	}

	if reg != nil {
		g.Go(func() error {
			if err := reg.Serve(gctx, *metricsAddr); err != nil {
				log.Error("%v", err)
			}
			return nil
		})
	}

	if ear != nil {
		g.Go(func() error {
			ear.Run(gctx)
			return nil
		})
	}

	fmt.Println(display.RenderBanner())
	if ear != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON - say \"Hey Coach\" then a command, or type."))
	}
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	// Outside the group: WaitReady never returns if the display fails to start.
	go func() {
		ui.WaitReady()
		app.run(gctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	if err := g.Wait(); err != nil {
		log.Error("shutdown: %v", err)
	}
}

// openStore prefers files on disk and falls back to memory.
func openStore(dir string, log *logger.Logger) (storage.Store, *storage.FileStore) {
	mem := storage.NewMemoryStore(log.Named("memory"))
	files, err := storage.NewFileStore(dir, log.Named("files"))
	if err != nil {
		log.Warn("file storage unavailable, data will not survive a restart: %v", err)
		return mem, nil
	}
	return storage.NewFallback(files, mem, log.Named("store")), files
}

// reloadKey picks up a settings or counter file edited outside the app.
func reloadKey(ctx context.Context, key string, prefs *preferences.Manager, tally *counter.Counter, log *logger.Logger) {
	var err error
	switch key {
	case domain.KeySettings:
		err = prefs.Reload(ctx)
	case domain.KeyCounter:
		err = tally.Load(ctx)
	default:
		return
	}
	if err != nil {
		log.Warn("reloading %s: %v", key, err)
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "vibetimer")
	}
	return ".vibetimer"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
