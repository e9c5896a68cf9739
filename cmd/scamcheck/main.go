package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/lcsecurity/scamcheck/internal/config"
	"github.com/lcsecurity/scamcheck/internal/controller"
	"github.com/lcsecurity/scamcheck/internal/core"
	"github.com/lcsecurity/scamcheck/internal/history"
	"github.com/lcsecurity/scamcheck/internal/predict"
	"github.com/lcsecurity/scamcheck/internal/styles"
	"github.com/lcsecurity/scamcheck/pkg/tui"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

var message = flag.String("m", "", "check a single `message` and exit")
var useBERT = flag.Bool("bert", false, "use the BERT model instead of Naive-Bayes")
var serviceURL = flag.String("url", "", "prediction service base `url` (default "+config.DefaultServiceURL+")")
var timeout = flag.Duration("timeout", 0, "per-request `timeout`, e.g. 5s")
var configFile = flag.String("config", "", "use a custom config `file` instead of ~/.config/scamcheck/config.yaml")
var historyCount = flag.Int("history", 0, "print the last `n` checks and exit")
var historySince = flag.Duration("history-since", 0, "print the checks made within `duration` and exit, e.g. 24h")
var historyDelete = flag.Uint("history-delete", 0, "delete the check with `id` from the history and exit")
var historyReset = flag.Bool("history-reset", false, "clear the check history and exit")
var cleanLogs = flag.Bool("clean-logs", false, "remove all log files and exit")

var helpFlag bool
var versionFlag bool

func init() {
	// Register help flags: -h and --help
	flag.BoolVar(&helpFlag, "h", false, "display help information")
	flag.BoolVar(&helpFlag, "help", false, "display help information")

	// Register version flags: -v and --version
	flag.BoolVar(&versionFlag, "v", false, "display build version")
	flag.BoolVar(&versionFlag, "version", false, "display build version")

	// Register custom zstd sink for compressed logging
	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

// main wires configuration, logging, the journal and the prediction
// controller, then hands off to one of:
// 1. Version display: scamcheck -v
// 2. Help display: scamcheck -h
// 3. Journal maintenance: scamcheck -history 10, -history-since 24h,
//    -history-delete 7, -history-reset
// 4. One-shot check: scamcheck -m "message"
// 5. Interactive checker: scamcheck (when stdin is a terminal)
// 6. Batch check: one message per line on stdin
func main() {
	flag.Parse()

	if versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if helpFlag {
		printUsage()
		return
	}

	if *cleanLogs {
		if err := core.CleanLogFiles(); err != nil {
			fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("failed to clean log files: %v", err)))
			os.Exit(1)
		}
		fmt.Println("Log files removed.")
		return
	}

	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadConfig(setFlags)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		os.Exit(2)
	}

	if err := core.ArchiveLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to archive log file: %v\n", err)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flush any buffered log entries
	}()

	sessionID := uuid.NewString()
	logger.Info("-------- new scamcheck session --------",
		zap.String("session", sessionID),
		zap.Any("args", os.Args),
		zap.String("service_url", cfg.ServiceURL),
		zap.Stringer("variant", cfg.Variant()),
	)

	var historyManager *history.HistoryManager
	if cfg.History || historyRequested(setFlags) {
		historyManager, err = history.NewHistoryManager(core.HistoryFile())
		if err != nil {
			logger.Warn("failed to open check history", zap.Error(err))
		} else {
			defer func() {
				if err := historyManager.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "failed to close history manager: %v\n", err)
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, setFlags, historyManager, sessionID, logger)
	if interrupted(ctx, err) {
		logger.Info("shutting down", zap.NamedError("cause", ctx.Err()))
		return
	}
	if errors.Is(err, errCheckFailed) {
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	cfg config.Config,
	setFlags map[string]bool,
	historyManager *history.HistoryManager,
	sessionID string,
	logger *zap.Logger,
) error {
	// scamcheck -history 10, -history-since 24h, -history-delete 7, -history-reset
	if historyRequested(setFlags) {
		if historyManager == nil {
			return errors.New("check history is unavailable")
		}
		return manageHistory(os.Stdout, historyManager, setFlags, cfg.HistorySize, time.Now())
	}

	client := predict.NewClient(cfg.ServiceURL, BUILD_VERSION, logger)
	logger.Info("prediction service", zap.String("endpoint", client.Endpoint()))
	ctrl := controller.New(client, logger,
		controller.WithTimeout(cfg.Timeout),
		controller.WithVariant(cfg.Variant()),
	)
	if historyManager != nil && cfg.History {
		unsubscribe := ctrl.Subscribe(history.NewRecorder(historyManager, sessionID, logger))
		defer unsubscribe()
	}

	// scamcheck -m "message"
	if setFlags["m"] {
		return checkMessage(ctx, ctrl, *message, os.Stdout, os.Stderr)
	}

	// scamcheck
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return tui.Run(ctx, ctrl, logger, tui.NewOptions())
	}

	return checkLines(ctx, ctrl, os.Stdin, os.Stdout, os.Stderr)
}

// interrupted reports whether err only reflects ctx being cancelled by a
// signal.
func interrupted(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled)
}

// loadConfig layers command-line flags over the config file, .env and
// environment, then validates the result.
func loadConfig(setFlags map[string]bool) (config.Config, error) {
	path := *configFile
	if path == "" {
		path = core.ConfigFile()
	}

	cfg, err := config.Load(path, ".env")
	if err != nil {
		return cfg, err
	}

	if setFlags["url"] {
		cfg.ServiceURL = *serviceURL
	}
	if setFlags["timeout"] {
		cfg.Timeout = *timeout
	}
	if setFlags["bert"] {
		if *useBERT {
			cfg.Model = predict.NeuralEmbedding.String()
		} else {
			cfg.Model = predict.LegacyStatistical.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func initializeLogger(cfg config.Config) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		"zstd://" + core.LogFile(),
	}
	return loggerConfig.Build()
}

func printUsage() {
	// Header
	fmt.Println(styles.HEADER("Usage:") + " scamcheck [flags]")
	fmt.Println("\nCheck whether a message looks like a scam.")
	fmt.Println()

	// Flags
	fmt.Println(styles.HEADER("Options:"))

	// Group aliases like -h and -help together
	printed := make(map[string]bool)

	flag.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		// Identify aliases based on shared usage strings.
		aliases := []string{f.Name}
		flag.VisitAll(func(p *flag.Flag) {
			if p.Name == f.Name {
				return
			}
			if p.Usage == f.Usage {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		// Short flags first, then long flags
		var shortFlags, longFlags []string
		for _, name := range aliases {
			if len(name) == 1 {
				shortFlags = append(shortFlags, "-"+name)
			} else {
				longFlags = append(longFlags, "-"+name)
			}
		}
		flagStr := strings.Join(append(shortFlags, longFlags...), ", ")

		argName, usage := flag.UnquoteUsage(f)
		if argName != "" {
			flagStr += " <" + argName + ">"
		}

		fmt.Printf("  %-28s %s\n", flagStr, usage)
	})

	fmt.Println()
	fmt.Println(styles.HEADER("Interactive keys:"))
	fmt.Printf("  %-28s %s\n", "enter", "Check the message")
	fmt.Printf("  %-28s %s\n", "tab", "Switch between Naive-Bayes and BERT")
	fmt.Printf("  %-28s %s\n", "f1-f4", "Check a built-in example")
	fmt.Printf("  %-28s %s\n", "ctrl+y", "Copy the verdict")
	fmt.Printf("  %-28s %s\n", "esc, ctrl+c", "Quit")
	fmt.Println()
	fmt.Println(styles.HINT("Without -m, messages are read one per line when stdin is not a terminal."))
}
