package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/app"
	"github.com/hyperifyio/gosummarize/internal/history"
	"github.com/hyperifyio/gosummarize/internal/settings"
	"github.com/hyperifyio/gosummarize/internal/summarize"
)

const clearConfirmation = "Are you sure you want to delete all summary history? This cannot be undone."

var errUsage = errors.New("usage error")

// stdio carries the process streams so run can be driven from tests.
type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
	// piped is true when in is not an interactive terminal and may be read
	// as pasted text.
	piped bool
}

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		verbose     bool
		configPath  string
		envFiles    string
		dataDir     string
		strictPerms bool
		provider    string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		timeout     time.Duration
		ttsCommand  string
	)
	flag.Usage = func() { usage(os.Stderr) }
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&configPath, "config", os.Getenv("GOSUMMARIZE_CONFIG"), "Path to YAML or JSON config file")
	flag.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	flag.StringVar(&dataDir, "data", "", "Data directory for key, settings and history (default: user config dir)")
	flag.BoolVar(&strictPerms, "strict-perms", false, "Restrict data permissions (0700 dirs, 0600 files)")
	flag.StringVar(&provider, "llm.provider", "", "Model backend: gemini (default) or openai")
	flag.StringVar(&llmBaseURL, "llm.base", "", "Base URL of the model API")
	flag.StringVar(&llmModel, "llm.model", "", "Model name")
	flag.StringVar(&llmKey, "llm.key", "", "API key; overrides the stored key")
	flag.DurationVar(&timeout, "timeout", 0, "Per-attempt timeout for summary requests (default 30s)")
	flag.StringVar(&ttsCommand, "tts.command", "", "Speech command (default: espeak-ng, espeak or say)")
	flag.Parse()

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		log.Warn().Err(err).Msg("could not load env file")
	}
	cfg := app.Config{
		DataDir:        dataDir,
		StrictPerms:    strictPerms,
		Provider:       provider,
		LLMBaseURL:     llmBaseURL,
		LLMModel:       llmModel,
		LLMAPIKey:      llmKey,
		AttemptTimeout: timeout,
		TTSCommand:     ttsCommand,
		Verbose:        verbose,
	}
	app.ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	piped := !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd())
	err := run(ctx, cfg, flag.Args(), stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr, piped: piped})
	os.Exit(exitCode(err, os.Stdout))
}

// exitCode reports err and maps it to the process status. User-facing
// failures print their message as the result and exit 2.
func exitCode(err error, out io.Writer) int {
	if err == nil {
		return 0
	}
	if isUserFacing(err) {
		fmt.Fprintln(out, userMessage(err))
		return 2
	}
	log.Error().Err(err).Msg("gosummarize failed")
	return 1
}

func isUserFacing(err error) bool {
	var se *summarize.Error
	return errors.As(err, &se) ||
		errors.Is(err, app.ErrMissingKey) ||
		errors.Is(err, app.ErrInvalidKey) ||
		errors.Is(err, app.ErrBlockedURL) ||
		errors.Is(err, app.ErrNoSource) ||
		errors.Is(err, history.ErrIndexOutOfRange) ||
		errors.Is(err, settings.ErrUnknownSetting) ||
		errors.Is(err, settings.ErrInvalidValue) ||
		errors.Is(err, errUsage)
}

func userMessage(err error) string {
	var se *summarize.Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: gosummarize [flags] <command> [args]

Commands:
  summarize [-mode brief|detailed|bullets] [-text T | -file F | -url U | -browser] [-copy] [-listen] [URL|FILE]
  history list | view N | pin N | delete N | clear [-yes] | export N [-format html|pdf] [-o PATH]
  key set KEY | check | clear
  settings show | set NAME VALUE
  listen [-text T] [N]
  version

Flags:
`)
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
}

func run(ctx context.Context, cfg app.Config, args []string, std stdio) error {
	if len(args) == 0 {
		usage(std.err)
		return fmt.Errorf("%w: no command given", errUsage)
	}
	switch args[0] {
	case "help", "-h", "--help":
		usage(std.out)
		return nil
	case "version":
		fmt.Fprintln(std.out, app.VersionString())
		return nil
	case "summarize", "history", "key", "settings", "listen":
	default:
		usage(std.err)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	a, err := app.New(ctx, cfg, app.Options{Input: std.in, Prompt: std.err})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	switch args[0] {
	case "summarize":
		return runSummarize(ctx, a, args[1:], std)
	case "history":
		return runHistory(ctx, a, args[1:], std)
	case "key":
		return runKey(ctx, a, args[1:], std)
	case "settings":
		return runSettings(ctx, a, args[1:], std)
	default:
		return runListen(ctx, a, args[1:], std)
	}
}

func newFlagSet(name string, std stdio) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(std.err)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func parseIndex(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 0, fmt.Errorf("%w: missing history index", errUsage)
	}
	i, err := strconv.Atoi(args[pos])
	if err != nil {
		return 0, fmt.Errorf("%w: history index %q is not a number", errUsage, args[pos])
	}
	return i, nil
}

func runSummarize(ctx context.Context, a *app.App, args []string, std stdio) error {
	fs := newFlagSet("summarize", std)
	var (
		mode      = fs.String("mode", "", "Summary mode: brief, detailed or bullets")
		text      = fs.String("text", "", "Text to summarize instead of a page")
		file      = fs.String("file", "", "Saved HTML page to summarize")
		url       = fs.String("url", "", "Page URL to fetch and summarize")
		useBrowse = fs.Bool("browser", false, "Open a browser window and summarize the page or your selection")
		selection = fs.String("selection", "", "Selected text on the page; wins over the page when long enough")
		doCopy    = fs.Bool("copy", false, "Copy the summary to the clipboard")
		doListen  = fs.Bool("listen", false, "Read the summary aloud")
	)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	src := app.Source{Text: *text, File: *file, URL: *url, Browser: *useBrowse, Selection: *selection}
	if rest := fs.Args(); len(rest) > 0 && src.File == "" && src.URL == "" {
		if strings.Contains(rest[0], "://") || strings.HasPrefix(rest[0], "about:") {
			src.URL = rest[0]
		} else {
			src.File = rest[0]
		}
	}
	if std.piped {
		src.Stdin = std.in
	}

	res, err := a.Summarize(ctx, src, *mode)
	if err != nil {
		return err
	}
	fmt.Fprintln(std.out, res.Summary)
	if *doCopy {
		if _, err := a.Copy(); err != nil {
			log.Warn().Err(err).Msg("copy failed")
		} else {
			log.Info().Msg("Copied to clipboard")
		}
	}
	if *doListen {
		return a.Listen(ctx, res.Summary)
	}
	return nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func runHistory(ctx context.Context, a *app.App, args []string, std stdio) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	h := a.History()
	switch sub {
	case "list":
		list, err := h.ListForDisplay(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(std.out, "No history yet.")
			return nil
		}
		for i, r := range list {
			pin := " "
			if r.IsPinned {
				pin = "*"
			}
			fmt.Fprintf(std.out, "%2d %s %s  (%s)\n", i, pin, r.Title, r.Date)
			fmt.Fprintf(std.out, "      %s\n", preview(r.Summary, 120))
		}
		return nil
	case "view":
		i, err := parseIndex(args, 0)
		if err != nil {
			return err
		}
		rec, err := a.View(ctx, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(std.out, "%s\n%s\n\n%s\n", rec.Title, rec.Date, rec.Summary)
		return nil
	case "pin":
		i, err := parseIndex(args, 0)
		if err != nil {
			return err
		}
		rec, err := h.TogglePin(ctx, i)
		if err != nil {
			return err
		}
		state := "Unpinned"
		if rec.IsPinned {
			state = "Pinned"
		}
		fmt.Fprintf(std.out, "%s: %s\n", state, rec.Title)
		return nil
	case "delete":
		i, err := parseIndex(args, 0)
		if err != nil {
			return err
		}
		rec, err := h.Delete(ctx, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(std.out, "Deleted: %s\n", rec.Title)
		return nil
	case "clear":
		fs := newFlagSet("history clear", std)
		yes := fs.Bool("yes", false, "Do not ask for confirmation")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if !*yes {
			fmt.Fprintf(std.err, "%s [y/N] ", clearConfirmation)
			line, _ := bufio.NewReader(std.in).ReadString('\n')
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				fmt.Fprintln(std.out, "Cancelled.")
				return nil
			}
		}
		if err := h.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(std.out, "History cleared.")
		return nil
	case "export":
		return runExport(ctx, h, args, std)
	}
	return fmt.Errorf("%w: unknown history command %q", errUsage, sub)
}

func runExport(ctx context.Context, h *history.Store, args []string, std stdio) error {
	fs := newFlagSet("history export", std)
	format := fs.String("format", "html", "Export format: html or pdf")
	out := fs.String("o", "", "Output path (html defaults to stdout, pdf to summary.pdf)")
	// accept the index before or after the flags
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		args = append(append([]string{}, args[1:]...), args[0])
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	i, err := parseIndex(fs.Args(), 0)
	if err != nil {
		return err
	}
	switch strings.ToLower(*format) {
	case "html":
		b, err := h.ExportHTML(ctx, i)
		if err != nil {
			return err
		}
		if *out == "" {
			_, err := std.out.Write(b)
			return err
		}
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
	case "pdf":
		if *out == "" {
			*out = "summary.pdf"
		}
		if err := h.ExportPDF(ctx, i, *out); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown export format %q", errUsage, *format)
	}
	abs, _ := filepath.Abs(*out)
	fmt.Fprintf(std.out, "Wrote %s\n", abs)
	return nil
}

func runKey(ctx context.Context, a *app.App, args []string, std stdio) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: key set KEY | check | clear", errUsage)
	}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("%w: missing key", errUsage)
		}
		if err := a.SetKey(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(std.out, "API key saved.")
		return nil
	case "check":
		if err := a.CheckKey(ctx); err != nil {
			return err
		}
		fmt.Fprintln(std.out, "API key is valid.")
		return nil
	case "clear":
		if err := a.ClearKey(ctx); err != nil {
			return err
		}
		fmt.Fprintln(std.out, "API key removed.")
		return nil
	}
	return fmt.Errorf("%w: unknown key command %q", errUsage, args[0])
}

func printSettings(w io.Writer, s settings.Settings) {
	fmt.Fprintf(w, "theme=%s\ntts-rate=%g\ntts-pitch=%g\ntts-voice=%s\n", s.Theme, s.TTSRate, s.TTSPitch, s.TTSVoice)
}

func runSettings(ctx context.Context, a *app.App, args []string, std stdio) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "show":
		s, err := a.Settings(ctx)
		if err != nil {
			return err
		}
		printSettings(std.out, s)
		return nil
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("%w: settings set NAME VALUE", errUsage)
		}
		s, err := a.SetSetting(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printSettings(std.out, s)
		return nil
	}
	return fmt.Errorf("%w: unknown settings command %q", errUsage, sub)
}

func runListen(ctx context.Context, a *app.App, args []string, std stdio) error {
	fs := newFlagSet("listen", std)
	text := fs.String("text", "", "Text to read instead of a history record")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*text) == "" {
		i := 0
		if fs.NArg() > 0 {
			var err error
			if i, err = parseIndex(fs.Args(), 0); err != nil {
				return err
			}
		}
		rec, err := a.History().Get(ctx, i)
		if err != nil {
			return err
		}
		*text = rec.Summary
	}
	return a.Listen(ctx, *text)
}
