// Package main provides the entry point for the tts-extra CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tdfn00b/tts-extra/internal/app"
	"github.com/tdfn00b/tts-extra/internal/audio"
	"github.com/tdfn00b/tts-extra/internal/config"
	"github.com/tdfn00b/tts-extra/internal/pipeline"
	"github.com/tdfn00b/tts-extra/internal/synth"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	endpoint     string
	voiceID      string
	strategyName string
	autoplay     bool
	volume       float64
	presetName   string
	onlyTypes    []string
	debug        bool

	rootCmd = &cobra.Command{
		Use:   "tts-extra [FILE]",
		Short: "Narrate stories aloud, with a voice per character",
		Long: paragraph(fmt.Sprintf(
			"\nSplit a story into %s, %s, and %s, synthesize each with its own voice, and play the result in order.",
			keyword("narration"), keyword("speech"), keyword("thoughts"))),
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE:         execute,
	}

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Narrate a single message",
		Long:  paragraph("\nNarrate one message given on the command line. A leading speaker label such as \"Alice: \" is stripped."),
		Args:  cobra.MinimumNArgs(1),
	}

	parseCmd = &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Show how a text splits into typed chunks",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runParse,
	}
)

// envOverrides are environment variable overrides applied on top of the
// settings file, below explicit flags.
type envOverrides struct {
	Endpoint string `env:"TTS_EXTRA_ENDPOINT"`
	VoiceID  string `env:"TTS_EXTRA_VOICE"`
	Debug    bool   `env:"TTS_EXTRA_DEBUG"`
}

// loadSettings resolves the effective settings: file, then environment,
// then flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, err
	}

	overrides, err := env.ParseAs[envOverrides]()
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if overrides.Endpoint != "" {
		settings.Endpoint = overrides.Endpoint
	}
	if overrides.VoiceID != "" {
		settings.VoiceID = overrides.VoiceID
	}

	if cmd.Flags().Changed("endpoint") {
		settings.Endpoint = endpoint
	}
	if cmd.Flags().Changed("voice") {
		settings.VoiceID = voiceID
	}

	return settings, nil
}

// readSource returns the text to narrate: the named file, or stdin when no
// argument is given or the argument is "-".
func readSource(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		stat, err := os.Stdin.Stat()
		if err != nil {
			return "", fmt.Errorf("unable to stat stdin: %w", err)
		}
		if len(args) == 0 && stat.Mode()&os.ModeCharDevice != 0 && stat.Size() == 0 {
			return "", errors.New("no input: pass a file or pipe text on stdin")
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("unable to open file: %w", err)
	}
	return string(b), nil
}

// newSession builds a narration session against the real audio device and
// synthesis endpoint.
func newSession(cmd *cobra.Command) (*app.App, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	presets, err := config.NewPresetStore("")
	if err != nil {
		log.Warn("Preset store unavailable", "error", err)
	}

	session := app.New(app.Options{
		Settings: settings,
		Output:   audio.NewOtoOutput(),
		Synth:    synth.NewClient(0),
		Presets:  presets,
		Strategy: pipeline.ParseStrategy(strategyName),
		Autoplay: autoplay,
	})

	if presetName != "" {
		if err := session.ApplyPreset(presetName); err != nil {
			_ = session.Close()
			return nil, fmt.Errorf("unable to apply preset %q: %w", presetName, err)
		}
	}

	if len(onlyTypes) > 0 {
		selected := make(map[string]bool, len(onlyTypes))
		for _, t := range onlyTypes {
			selected[strings.TrimSpace(t)] = true
		}
		session.SetSelectedTypes(selected)
	}

	session.SetVolume(volume)
	return session, nil
}

// narrate runs one full narration of text and blocks until playback ends
// or the user interrupts.
func narrate(session *app.App, text string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chunks := session.Parse(text)
	if len(chunks) == 0 {
		return errors.New("nothing to narrate")
	}

	session.PrepareAudio()

	if err := session.Wait(ctx); err != nil {
		session.Panic()
		fmt.Println("\nInterrupted.")
		return nil
	}

	if stats := session.CacheStats(); stats.Items > 0 {
		log.Debug("Session finished",
			"cachedItems", stats.Items,
			"cachedAudio", humanize.Bytes(uint64(stats.Bytes)), //nolint:gosec
			"inMemory", humanize.Bytes(uint64(stats.Compressed)), //nolint:gosec
			"cacheHits", stats.Hits,
			"cacheMisses", stats.Misses)
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	text, err := readSource(args)
	if err != nil {
		return err
	}

	session, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer session.Close() //nolint:errcheck

	return narrate(session, text)
}

func speak(text string) error {
	session, err := newSession(speakCmd)
	if err != nil {
		return err
	}
	defer session.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.SpeakText(text)
	if err := session.Wait(ctx); err != nil {
		session.Panic()
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readSource(args)
	if err != nil {
		return err
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	chunks := segmentChunks(text, settings)
	if len(chunks) == 0 {
		return errors.New("no chunks found")
	}

	fmt.Print(renderChunks(chunks))
	return nil
}

func setupLog() {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)

	overrides, err := env.ParseAs[envOverrides]()
	if err == nil && overrides.Debug {
		debug = true
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

func main() {
	cobra.OnInitialize(setupLog)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "settings file (default: search standard locations)")
	pf.StringVar(&endpoint, "endpoint", "", "synthesis endpoint URL")
	pf.StringVar(&voiceID, "voice", "", "default voice id")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.Flags().StringVar(&strategyName, "strategy", string(pipeline.StrategySmartGroup), "batching strategy: individual, paragraph, or smart-group")
	rootCmd.Flags().BoolVar(&autoplay, "autoplay", true, "start playback as soon as the first audio is ready")
	rootCmd.Flags().Float64Var(&volume, "volume", 1.0, "playback volume between 0.0 and 1.0")
	rootCmd.Flags().StringVar(&presetName, "preset", "", "apply a stored settings preset")
	rootCmd.Flags().StringSliceVar(&onlyTypes, "types", nil, "narrate only these chunk types (default: all)")

	speakCmd.Flags().StringVar(&strategyName, "strategy", string(pipeline.StrategySmartGroup), "batching strategy: individual, paragraph, or smart-group")
	speakCmd.Flags().BoolVar(&autoplay, "autoplay", true, "start playback as soon as the first audio is ready")
	speakCmd.Flags().Float64Var(&volume, "volume", 1.0, "playback volume between 0.0 and 1.0")
	speakCmd.Flags().StringVar(&presetName, "preset", "", "apply a stored settings preset")

	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle: the closure refers to speak, which refers
	// back to speakCmd.
	speakCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return speak(strings.Join(args, " "))
	}

	rootCmd.AddCommand(speakCmd, parseCmd, configCmd, presetCmd)
}
