// Package main provides the CLI entrypoint for dojo.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pro-xee/editor-dojo/internal/challenge"
	"github.com/pro-xee/editor-dojo/internal/config"
	"github.com/pro-xee/editor-dojo/internal/history"
	"github.com/pro-xee/editor-dojo/internal/integrity"
	"github.com/pro-xee/editor-dojo/internal/progress"
	"github.com/pro-xee/editor-dojo/internal/session"
	"github.com/pro-xee/editor-dojo/internal/stats"
	"github.com/pro-xee/editor-dojo/internal/statsui"
	"github.com/pro-xee/editor-dojo/internal/tui"
)

const (
	defaultRecorder     = "asciinema"
	defaultPollInterval = 100
	defaultTrendWindow  = 20
)

var (
	practiceEditor      string
	practiceRecorder    string
	practiceNoRecord    bool
	practiceChallenge   string
	practiceDir         string
	practicePollMs      int
	statsChallenge      string
	statsSince          string
	statsLast           int
	statsPlain          bool
	verifyChallengeFlag string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dojo",
		Short:         "Editor proficiency trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceEditor, "editor", "", "editor command (default: $EDITOR)")
	rootCmd.Flags().StringVar(&practiceRecorder, "recorder", defaultRecorder, "terminal recorder command")
	rootCmd.Flags().BoolVar(&practiceNoRecord, "no-record", false, "disable keystroke recording")
	rootCmd.Flags().StringVar(&practiceChallenge, "challenge", "", "run a specific challenge by id")
	rootCmd.Flags().StringVar(&practiceDir, "challenges-dir", config.DefaultChallengesDir(), "challenge definitions directory")
	rootCmd.Flags().IntVar(&practicePollMs, "poll-interval-ms", defaultPollInterval, "target file polling interval")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// practiceEnv bundles everything a practice session needs open at once.
type practiceEnv struct {
	challenges []challenge.Challenge
	runner     *session.Runner
	tracker    *progress.Tracker
	hist       *history.Store
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "editor", &practiceEditor, fileCfg.Practice.Editor)
	applyStringConfig(cmd, "recorder", &practiceRecorder, fileCfg.Practice.Recorder)
	applyStringConfig(cmd, "challenges-dir", &practiceDir, fileCfg.Practice.ChallengesDir)
	applyIntConfig(cmd, "poll-interval-ms", &practicePollMs, fileCfg.Practice.PollIntervalMs)
	if fileCfg.Practice.Recording != nil && !cmd.Flags().Changed("no-record") {
		practiceNoRecord = !*fileCfg.Practice.Recording
	}

	if practicePollMs <= 0 {
		return fmt.Errorf("--poll-interval-ms must be > 0")
	}

	challenges, err := challenge.LoadDir(practiceDir)
	if err != nil {
		return challengeLoadError(practiceDir, err)
	}
	if len(challenges) == 0 {
		return challengeLoadError(practiceDir, fmt.Errorf("no challenge files found"))
	}

	signer, err := buildSigner(fileCfg)
	if err != nil {
		return err
	}

	tracker, err := progress.NewTracker(progress.NewStore(config.DefaultProgressPath()), signer, warnf)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	editor := resolveEditor(practiceEditor)
	if editor == "" {
		// Fall back to the editor from the last session.
		editor = tracker.Progress().EditorPreference
	}
	if editor == "" {
		return fmt.Errorf("no editor configured (set --editor, the config file, or $EDITOR)")
	}

	hist, err := history.Open(config.DefaultHistoryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil {
			logErrf("failed to close history db: %v\n", cerr)
		}
	}()

	recorder := practiceRecorder
	if practiceNoRecord {
		recorder = ""
	}
	runner := &session.Runner{
		EditorCommand:   editor,
		RecorderCommand: recorder,
		RecordingsDir:   config.DefaultRecordingsDir(),
		PollInterval:    time.Duration(practicePollMs) * time.Millisecond,
		Warnf:           warnf,
	}
	if !runner.EditorAvailable() {
		return fmt.Errorf("editor %q not found on PATH", editor)
	}
	if recorder != "" && !runner.RecorderAvailable() {
		warnf("recorder %q not found on PATH; keystrokes will not be captured", recorder)
		runner.RecorderCommand = ""
	}

	if tracker.Progress().EditorPreference != editor {
		tracker.Progress().EditorPreference = editor
		if err := tracker.Save(); err != nil {
			warnf("failed to save editor preference: %v", err)
		}
	}

	env := &practiceEnv{
		challenges: challenges,
		runner:     runner,
		tracker:    tracker,
		hist:       hist,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if practiceChallenge != "" {
		ch, ok := findChallenge(challenges, practiceChallenge)
		if !ok {
			return fmt.Errorf("unknown challenge %q (run: dojo list)", practiceChallenge)
		}
		return runAttempt(ctx, env, ch)
	}

	// Picker loop: keep offering challenges until the user quits.
	for {
		ch, ok, err := tui.PickChallenge(env.challenges, env.tracker.Progress())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := runAttempt(ctx, env, ch); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// runAttempt drives one challenge attempt and persists the result.
func runAttempt(ctx context.Context, env *practiceEnv, ch challenge.Challenge) error {
	sol, err := env.runner.Run(ctx, ch)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("attempt failed: %w", err)
	}

	attemptedAt := time.Now()
	attempt := progress.Attempt{
		Completed:     sol.Completed(),
		Elapsed:       sol.Elapsed,
		Keystrokes:    sol.KeystrokeCount(),
		RecordingPath: sol.RecordingPath,
		AttemptedAt:   attemptedAt,
	}

	newBestTime := false
	newBestKeys := false
	if sol.Completed() {
		newBestTime, newBestKeys = env.tracker.IsNewRecord(ch.ID, attempt)
		if _, err := env.tracker.RecordAttempt(ch.ID, attempt); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
	}

	if _, err := env.hist.InsertAttempt(ctx, history.Attempt{
		ChallengeID:   ch.ID,
		AttemptedAt:   attemptedAt,
		Completed:     sol.Completed(),
		DurationMs:    sol.Elapsed.Milliseconds(),
		Keystrokes:    sol.KeystrokeCount(),
		RecordingPath: sol.RecordingPath,
	}); err != nil {
		// History is secondary; the progress file already holds the result.
		logErrf("failed to log attempt: %v\n", err)
	}

	prog := env.tracker.Progress()
	result := tui.Result{
		ChallengeID:   ch.ID,
		Title:         ch.Title,
		Solution:      sol,
		NewBestTime:   newBestTime,
		NewBestKeys:   newBestKeys,
		CurrentStreak: prog.CurrentStreak,
		Hint:          ch.Hint,
	}
	if st, ok := prog.Challenges[ch.ID]; ok {
		result.BestTimeSecs = st.BestTimeSecs
	}
	return tui.RenderResult(os.Stdout, result)
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available challenges",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&practiceDir, "challenges-dir", config.DefaultChallengesDir(), "challenge definitions directory")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "challenges-dir", &practiceDir, fileCfg.Practice.ChallengesDir)

	challenges, err := challenge.LoadDir(practiceDir)
	if err != nil {
		return challengeLoadError(practiceDir, err)
	}
	if len(challenges) == 0 {
		return challengeLoadError(practiceDir, fmt.Errorf("no challenge files found"))
	}

	prog, err := progress.NewStore(config.DefaultProgressPath()).Load()
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	for _, ch := range challenges {
		marker := " "
		if st, ok := prog.Challenges[ch.ID]; ok && st.Completed {
			marker = "✓"
		}
		line := fmt.Sprintf("%s %s — %s", marker, ch.ID, ch.Title)
		if ch.Difficulty != "" {
			line += fmt.Sprintf(" [%s]", ch.Difficulty)
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsChallenge, "challenge", "", "challenge filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := stats.ReportConfig{
		ChallengeID: statsChallenge,
		Since:       sinceTime,
		Last:        statsLast,
		TrendWindow: defaultTrendWindow,
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	signer, err := buildSigner(fileCfg)
	if err != nil {
		return err
	}

	prog, err := progress.NewStore(config.DefaultProgressPath()).Load()
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	hist, err := history.Open(config.DefaultHistoryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil {
			logErrf("failed to close history db: %v\n", cerr)
		}
	}()

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), hist, prog, signer, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		out := cmd.OutOrStdout()
		if err := stats.RenderSummary(out, report); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return stats.RenderChallengeTable(out, report.Challenges)
	}

	model := statsui.NewModel(hist, prog, signer, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-check result signatures and recording hashes",
		Args:  cobra.NoArgs,
		RunE:  runVerifyCmd,
	}
	cmd.Flags().StringVar(&verifyChallengeFlag, "challenge", "", "verify a single challenge")
	return cmd
}

func runVerifyCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	signer, err := buildSigner(fileCfg)
	if err != nil {
		return err
	}

	prog, err := progress.NewStore(config.DefaultProgressPath()).Load()
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	if len(prog.Challenges) == 0 {
		return fmt.Errorf("no recorded results to verify")
	}

	hist, err := history.Open(config.DefaultHistoryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil {
			logErrf("failed to close history db: %v\n", cerr)
		}
	}()

	ids := make([]string, 0, len(prog.Challenges))
	for id := range prog.Challenges {
		if verifyChallengeFlag != "" && id != verifyChallengeFlag {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no recorded results for challenge %q", verifyChallengeFlag)
	}
	sort.Strings(ids)

	failed := 0
	out := cmd.OutOrStdout()
	for _, id := range ids {
		entry := prog.Challenges[id]
		recording := findRecording(cmd.Context(), hist, id, entry.RecordingHash)
		status := progress.Verify(signer, entry, recording)
		if status == progress.SignatureFailed || status == progress.RecordingHashFailed {
			failed++
		}
		if _, err := fmt.Fprintf(out, "%-30s %s\n", id, status); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d result(s) failed verification", failed)
	}
	return nil
}

// findRecording returns the newest on-disk recording for a challenge, or
// empty when none survives. A stored hash with no file left is verified on
// the signature alone.
func findRecording(ctx context.Context, hist *history.Store, challengeID, recordingHash string) string {
	if recordingHash == "" {
		return ""
	}
	paths, err := hist.RecentRecordings(ctx, challengeID)
	if err != nil {
		logErrf("failed to list recordings for %s: %v\n", challengeID, err)
		return ""
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := resolveEditor("")
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resolveEditor picks the editor: explicit value first, then $EDITOR.
func resolveEditor(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return strings.TrimSpace(os.Getenv("EDITOR"))
}

// buildSigner returns the result signer, honoring a config key override.
func buildSigner(fileCfg config.FileConfig) (*integrity.Signer, error) {
	key := integrity.DefaultKey()
	if fileCfg.Practice.SigningKey != nil {
		decoded, err := hex.DecodeString(strings.TrimSpace(*fileCfg.Practice.SigningKey))
		if err != nil {
			return nil, fmt.Errorf("invalid signing-key in config: %w", err)
		}
		key = decoded
	}
	signer, err := integrity.NewSigner(key)
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}
	return signer, nil
}

func findChallenge(challenges []challenge.Challenge, id string) (challenge.Challenge, bool) {
	for _, ch := range challenges {
		if ch.ID == id {
			return ch, true
		}
	}
	return challenge.Challenge{}, false
}

func challengeLoadError(dir string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load challenges: %v", err),
		fmt.Sprintf("expected challenge TOML files in: %s", dir),
		"Each file defines one challenge with [metadata] and [content] sections.",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# dojo configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# editor = "hx"             # Editor command (default: $EDITOR)
# recorder = %q     # Terminal recorder command
# recording = true          # Record keystrokes when the recorder is available
# poll-interval-ms = %d    # Target file polling interval
# challenges-dir = ""       # Challenge definitions directory
# signing-key = ""          # Hex-encoded result signing key override
`,
		defaultRecorder,
		defaultPollInterval,
	)
}

func warnf(format string, args ...any) {
	logErrf(format+"\n", args...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
