package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"calplan/internal/config"
	"calplan/internal/ics"
	appLog "calplan/internal/log"
	"calplan/internal/planner"
	"calplan/internal/store"
	"calplan/internal/tui"
	"calplan/internal/view"
)

const version = "0.3.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	dataPath   string
	logLevel   string
}

func main() {
	flags := parseFlags()

	cfgPath := flags.configPath
	if cfgPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			appLog.Error("failed to locate config", err)
			os.Exit(1)
		}
		cfgPath = p
	}

	conf, err := config.Load(cfgPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", cfgPath)
		os.Exit(1)
	}

	levelName := conf.LogLevel
	if flags.logLevel != "" {
		levelName = flags.logLevel
	}
	level, err := appLog.ParseLevel(levelName)
	if err != nil {
		appLog.Error("invalid log level", err, "level", levelName)
		os.Exit(2)
	}
	appLog.SetLevel(level)

	dataPath := flags.dataPath
	if dataPath == "" {
		dataPath = config.Resolve(cfgPath, conf.DataFile)
	}

	appLog.Debug("effective config",
		"version", version,
		"config_path", cfgPath,
		"data_file", dataPath,
		"horizon_years", conf.HorizonYears,
		"week_start", conf.WeekStart,
		"default_view", conf.DefaultView,
		"upcoming_only", conf.UpcomingOnly,
		"sort_ascending", conf.SortAscending,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	args := flag.Args()
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "":
		err = runUI(ctx, conf, cfgPath, dataPath)
	case "export":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		err = runExport(dataPath, args[1])
	case "import":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		err = runImport(ctx, dataPath, args[1])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		appLog.Error("calplan failed", err, "command", cmd)
		fmt.Fprintln(os.Stderr, "calplan:", err)
		os.Exit(1)
	}
}

func runUI(ctx context.Context, conf *config.Config, cfgPath, dataPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the calendar UI needs an interactive terminal; use export/import for scripting")
	}

	// The UI owns the terminal, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if conf.LogFile != "" {
		logPath := config.Resolve(cfgPath, conf.LogFile)
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	appLog.SetOutput(logOut)
	defer appLog.SetOutput(os.Stderr)

	appLog.Info("calplan starting", "version", version, "data_file", dataPath)

	s, res, err := store.Open(dataPath)
	if err != nil {
		return err
	}

	mode, err := view.ParseMode(conf.DefaultView)
	if err != nil {
		mode = view.All
	}
	now := time.Now()
	p := planner.New(s, planner.Settings{
		HorizonYears:   conf.HorizonYears,
		MaxPerTemplate: conf.MaxOccurrencesPerEvent,
		WeekStart:      conf.Weekday(),
		Mode:           mode,
		UpcomingOnly:   conf.UpcomingOnly,
		Ascending:      conf.SortAscending,
	}, now)

	m := tui.New(p, tui.Palette(conf.Palette), time.Now)
	if res.Status == store.LoadCorrupt {
		msg := fmt.Sprintf("Could not read %s; starting empty.", filepath.Base(dataPath))
		if res.Preserved != "" {
			msg += " The unreadable file was copied to " + res.Preserved
		}
		m.SetStatus(msg, true)
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	appLog.Info("calplan exiting")
	return nil
}

func runExport(dataPath, dest string) error {
	s, res, err := store.Open(dataPath)
	if err != nil {
		return err
	}
	if res.Status == store.LoadCorrupt {
		return res.Warning
	}

	var buf bytes.Buffer
	if err := ics.Export(&buf, s.Snapshot(), time.Now()); err != nil {
		return err
	}
	if dest == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	fmt.Fprintf(os.Stderr, "exported %d events to %s\n", s.Len(), dest)
	return nil
}

func runImport(ctx context.Context, dataPath, src string) error {
	s, res, err := store.Open(dataPath)
	if err != nil {
		return err
	}
	if res.Status == store.LoadCorrupt {
		return fmt.Errorf("refusing to import over an unreadable data file: %w", res.Warning)
	}

	var r io.Reader
	if ics.IsURL(src) {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("locate cache dir: %w", err)
		}
		fetched, err := ics.NewFetcher(filepath.Join(cacheDir, "calplan", "ics-cache")).Fetch(ctx, src)
		if err != nil {
			return err
		}
		r = bytes.NewReader(fetched.Body)
	} else if src == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("open %s: %w", src, err)
		}
		defer f.Close()
		r = f
	}

	result, err := ics.Import(r, s)
	if err != nil {
		return err
	}
	if result.Added > 0 {
		if err := s.Save(); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "imported %d events (%d already present, %d unsupported, %d invalid)\n",
		result.Added, result.Duplicates, result.Unsupported, result.Invalid)
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (default: user config dir)")
	flag.StringVar(&cfg.dataPath, "data", "", "Path to the event file (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.Usage = usage

	flag.Parse()

	return cfg
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage:\n")
	fmt.Fprintf(out, "  calplan [flags]                 open the calendar\n")
	fmt.Fprintf(out, "  calplan [flags] export FILE     write all events as iCalendar (- for stdout)\n")
	fmt.Fprintf(out, "  calplan [flags] import SOURCE   add events from an .ics file, URL or - for stdin\n\n")
	fmt.Fprintf(out, "Flags:\n")
	flag.PrintDefaults()
}
