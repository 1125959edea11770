package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/KnockOutEZ/copydeck/internal/clipboard"
	"github.com/KnockOutEZ/copydeck/internal/config"
	"github.com/KnockOutEZ/copydeck/internal/feedback"
	"github.com/KnockOutEZ/copydeck/internal/formatter"
	"github.com/KnockOutEZ/copydeck/internal/git"
	"github.com/KnockOutEZ/copydeck/internal/logging"
	"github.com/KnockOutEZ/copydeck/internal/scanner"
	"github.com/KnockOutEZ/copydeck/internal/security"
	"github.com/KnockOutEZ/copydeck/internal/source"
	"github.com/KnockOutEZ/copydeck/internal/utils"
)

var (
	version = "1.0.0"

	// Command line flags
	configPath      string
	showVersion     bool
	initConfig      bool
	filePatterns    []string
	ignorePatterns  string
	includeHidden   bool
	encoding        string
	gitHead         bool
	gitFile         string
	revision        string
	outputStyle     string
	showLineNumbers bool
	printPayload    bool
	method          string
	hold            bool
	timeout         time.Duration
	noSecurityCheck bool
	strict          bool
	progressBar     bool
	verbose         bool
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config file")
	pflag.BoolVarP(&showVersion, "version", "v", false, "Show version")
	pflag.BoolVar(&initConfig, "init", false, "Write a config file with the defaults")

	// Payload sources
	pflag.StringArrayVarP(&filePatterns, "file", "f", nil, "Copy files matching the pattern (repeatable, ** allowed)")
	pflag.StringVarP(&ignorePatterns, "ignore", "i", "", "Ignore patterns (comma-separated)")
	pflag.BoolVar(&includeHidden, "hidden", false, "Include hidden files in pattern matches")
	pflag.StringVar(&encoding, "encoding", "", "Encoding of the files (default: detect)")
	pflag.BoolVar(&gitHead, "git-head", false, "Copy the commit hash of --rev")
	pflag.StringVar(&gitFile, "git-file", "", "Copy a file as of --rev (path relative to the repository root)")
	pflag.StringVar(&revision, "rev", "", "Git revision for --git-head and --git-file")

	// Output control
	pflag.StringVarP(&outputStyle, "style", "s", "", "Style for multiple items (plain, markdown, xml)")
	pflag.BoolVarP(&showLineNumbers, "line-numbers", "n", false, "Prefix lines with their number")
	pflag.BoolVarP(&printPayload, "print", "p", false, "Also print the payload to stdout")

	// Clipboard
	pflag.StringVarP(&method, "method", "m", "", "Clipboard method (auto, async, legacy)")
	pflag.BoolVar(&hold, "hold", false, "Stay alive until the clipboard is overwritten")
	pflag.DurationVar(&timeout, "timeout", 0, "How long to wait for the clipboard write")

	pflag.BoolVar(&noSecurityCheck, "no-security-check", false, "Disable the secret check")
	pflag.BoolVar(&strict, "strict", false, "Refuse to copy when a secret is found")
	pflag.BoolVar(&progressBar, "progress", false, "Show a progress bar while reading files")
	pflag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

// copyEnv is what copyPayload takes from the machine it runs on.
type copyEnv struct {
	newWriter       func(clipboard.Options) (*clipboard.Writer, error)
	goos            string
	systemClipboard bool
	stderr          io.Writer
}

func defaultCopyEnv() copyEnv {
	return copyEnv{
		newWriter:       clipboard.New,
		goos:            runtime.GOOS,
		systemClipboard: clipboard.SystemAvailable(),
		stderr:          os.Stderr,
	}
}

func main() {
	pflag.Parse()

	if err := run(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}

func run() error {
	if showVersion {
		fmt.Printf("copydeck version %s\n", version)
		return nil
	}

	if initConfig {
		return initializeConfig()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Annotate(err, "failed to load config")
	}

	applyCommandLineOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Trace(err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return errors.Trace(err)
	}
	defer logger.Sync()

	items, err := collectItems(cfg, logger)
	if err != nil {
		return errors.Trace(err)
	}
	if len(items) == 0 {
		return errors.New("nothing to copy: pass text, pipe stdin, or use --file/--git-head/--git-file")
	}
	logger.Debug("Collected payload", zap.Int(logging.KeyItems, len(items)), zap.Int(logging.KeyBytes, source.Total(items)))

	if !cfg.Security.DisableSecurityCheck {
		if err := runSecurityCheck(items, cfg, logger, os.Stderr); err != nil {
			return err
		}
	}

	payload, err := formatPayload(items, cfg)
	if err != nil {
		return errors.Trace(err)
	}

	if cfg.Output.Print {
		fmt.Print(payload)
	}

	return copyPayload(payload, cfg, logger, defaultCopyEnv())
}

func collectItems(cfg *config.Config, logger *zap.Logger) ([]source.Item, error) {
	var items []source.Item

	if args := pflag.Args(); len(args) > 0 {
		items = append(items, source.FromArgs(args))
	} else if len(cfg.Input.Include) == 0 && !gitHead && gitFile == "" && !term.IsTerminal(int(os.Stdin.Fd())) {
		item, err := source.FromReader("stdin", os.Stdin, cfg.Input.MaxFileSize)
		if err != nil {
			return nil, errors.Trace(err)
		}
		items = append(items, item)
	}

	if len(cfg.Input.Include) > 0 {
		var bar *progressbar.ProgressBar
		if progressBar {
			bar = progressbar.NewOptions(-1,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("Reading"),
				progressbar.OptionSetItsString("files"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		}

		s := scanner.New(scanner.Options{
			Ignore:        cfg.Input.Ignore,
			IncludeHidden: cfg.Input.IncludeHidden,
			MaxFileSize:   cfg.Input.MaxFileSize,
			Encoding:      cfg.Input.Encoding,
			Progress:      bar,
			Logger:        logging.Component(logger, "scanner"),
		})
		files, err := s.Scan(cfg.Input.Include)
		if err != nil {
			return nil, errors.Annotate(err, "failed to scan files")
		}
		items = append(items, files...)
	}

	if gitHead || gitFile != "" {
		repo, err := git.Open(cfg.Git.RepoPath)
		if err != nil {
			return nil, errors.Trace(err)
		}

		if gitHead {
			item, err := repo.CommitItem(cfg.Git.Revision)
			if err != nil {
				return nil, errors.Trace(err)
			}
			items = append(items, item)
		}
		if gitFile != "" {
			item, err := repo.FileItem(cfg.Git.Revision, gitFile)
			if err != nil {
				return nil, errors.Trace(err)
			}
			items = append(items, item)
		}
	}

	return items, nil
}

func runSecurityCheck(items []source.Item, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	issues := security.NewChecker().Check(items)
	if len(issues) == 0 {
		return nil
	}

	for _, issue := range issues {
		logger.Warn(issue.Message,
			zap.String("item", issue.Item),
			zap.Int("line", issue.Line),
			zap.String("rule", issue.RuleID),
			zap.String("severity", issue.Severity),
		)
	}

	report, err := security.CreateReport(issues, "text")
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintln(out, "\nSecurity Issues Found:")
	fmt.Fprintln(out, strings.TrimRight(report, "\n"))
	fmt.Fprintln(out)

	if cfg.Security.Strict && security.HasErrors(issues) {
		return errors.New("refusing to copy likely secrets (drop --strict or pass --no-security-check)")
	}
	return nil
}

func formatPayload(items []source.Item, cfg *config.Config) (string, error) {
	f, err := formatter.NewFormatter(formatter.Options{
		Style:           cfg.Output.Style,
		ShowLineNumbers: cfg.Output.ShowLineNumbers,
	})
	if err != nil {
		return "", errors.Trace(err)
	}

	return f.Format(items)
}

// copyPayload writes payload to the clipboard and reports the outcome.
//
// On Linux an X11 selection lives only as long as the program owning it. Left
// on auto, copydeck hands the payload to the system copy utility there, which
// keeps the selection alive after exit. When the native path is used anyway,
// copydeck holds the clipboard until it is overwritten.
func copyPayload(payload string, cfg *config.Config, logger *zap.Logger, env copyEnv) error {
	m, err := clipboard.ParseMethod(cfg.Clipboard.Method)
	if err != nil {
		return errors.Trace(err)
	}

	selectionDiesOnExit := env.goos == "linux"
	if m == clipboard.MethodAuto && selectionDiesOnExit && !cfg.Clipboard.Hold && env.systemClipboard {
		logger.Debug("Using the system copy utility so the clipboard outlives copydeck")
		m = clipboard.MethodLegacy
	}

	w, err := env.newWriter(clipboard.Options{
		Method:     m,
		StagingDir: cfg.Clipboard.StagingDir,
		Logger:     logging.Component(logger, "clipboard"),
	})
	if err != nil {
		return errors.Annotate(err, "failed to set up clipboard")
	}
	defer w.Close()

	control := feedback.NewControl(w, cfg.Clipboard.SuccessTime)
	defer control.Stop()
	control.SetCopyText(payload)
	control.OnSwitchToSuccess(func(feedback.Event) {
		logger.Debug("Copy requested",
			zap.String(logging.KeyMethod, string(w.Method())),
			zap.Int(logging.KeyLines, utils.CountLines(payload)),
		)
	})

	receipt := control.Click(false)

	ctx := context.Background()
	if cfg.Clipboard.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Clipboard.Timeout)
		defer cancel()
	}

	if err := receipt.Wait(ctx); err != nil {
		return errors.Annotatef(err, "failed to copy to clipboard via %s", receipt.Method())
	}

	fmt.Fprintf(env.stderr, "Copied %d bytes, %d lines to the clipboard (%s)\n",
		len(payload), utils.CountLines(payload), receipt.Method())

	hold := cfg.Clipboard.Hold
	if !hold && receipt.Method() == clipboard.MethodAsync && selectionDiesOnExit {
		logger.Info("Holding the clipboard, X11 selections go away with their owner")
		hold = true
	}
	if hold {
		waitForOverwrite(receipt, logger, env.stderr)
	}
	return nil
}

// waitForOverwrite blocks until another program owns the clipboard or the
// user interrupts.
func waitForOverwrite(receipt *clipboard.Receipt, logger *zap.Logger, out io.Writer) {
	overwritten := receipt.Overwritten()
	if overwritten == nil {
		logger.Debug("Nothing to hold, the clipboard keeps the payload on its own")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "Holding the clipboard until it is overwritten (Ctrl-C to quit)")
	select {
	case <-overwritten:
		logger.Info("Clipboard overwritten, exiting")
	case <-ctx.Done():
	}
}

func initializeConfig() error {
	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		return errors.Trace(err)
	}
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}

func applyCommandLineOverrides(cfg *config.Config) {
	if len(filePatterns) > 0 {
		cfg.Input.Include = filePatterns
	}
	if ignorePatterns != "" {
		cfg.Input.Ignore = append(cfg.Input.Ignore, utils.ParsePatternList(ignorePatterns)...)
	}
	if includeHidden {
		cfg.Input.IncludeHidden = true
	}
	if encoding != "" {
		cfg.Input.Encoding = encoding
	}
	if revision != "" {
		cfg.Git.Revision = revision
	}
	if outputStyle != "" {
		cfg.Output.Style = outputStyle
	}
	if showLineNumbers {
		cfg.Output.ShowLineNumbers = true
	}
	if printPayload {
		cfg.Output.Print = true
	}
	if method != "" {
		cfg.Clipboard.Method = method
	}
	if hold {
		cfg.Clipboard.Hold = true
	}
	if timeout > 0 {
		cfg.Clipboard.Timeout = timeout
	}
	if noSecurityCheck {
		cfg.Security.DisableSecurityCheck = true
	}
	if strict {
		cfg.Security.Strict = true
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
}
