// Command ccdump is the thin CLI wrapper around internal/proxy,
// internal/recorder, internal/replayer, and internal/display: it wires
// the router, starts the listener, optionally records or replays a HAR
// session, and launches the terminal UI when stdout is a TTY. Grounded
// on cmd/claude/main.go's cobra/pflag option-struct wiring, trimmed to
// cc-dump's much smaller flag surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cc-dump/ccdump/internal/archive"
	"github.com/cc-dump/ccdump/internal/config"
	"github.com/cc-dump/ccdump/internal/display"
	"github.com/cc-dump/ccdump/internal/events"
	"github.com/cc-dump/ccdump/internal/obs"
	"github.com/cc-dump/ccdump/internal/proxy"
	"github.com/cc-dump/ccdump/internal/recorder"
	"github.com/cc-dump/ccdump/internal/replayer"
	"logur.dev/logur"
)

// version stamps the HAR creator field and the --version output.
const version = "0.1.0"

// options holds the CLI surface from SPEC_FULL.md §6.3.
type options struct {
	Listen    string
	Upstream  string
	Record    string
	Replay    string
	List      bool
	Continue  bool
	OtelDebug bool
}

func main() {
	opts := &options{}
	var ranRunE bool
	rootCmd := &cobra.Command{
		Use:   "ccdump",
		Short: "Observability proxy for the Anthropic Messages API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ranRunE = true
			return runRoot(opts)
		},
	}
	applyFlags(rootCmd, opts)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ccdump:", err)
		if !ranRunE {
			// cobra rejected flags/args before RunE ever started: a usage
			// error (spec.md §6: "2 arg error").
			os.Exit(2)
		}
		var bindErr bindError
		if errors.As(err, &bindErr) {
			os.Exit(3)
		}
		var argErr argError
		if errors.As(err, &argErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// argError marks a semantically invalid (but syntactically well-formed)
// flag combination, mapped to exit code 2 alongside cobra's own
// flag-parsing failures (spec.md §6: "2 arg error").
type argError struct{ error }

// bindError maps to exit code 3 (spec.md §6: "3 bind failure").
type bindError struct{ error }

func applyFlags(cmd *cobra.Command, o *options) {
	flags := cmd.Flags()
	flags.StringVar(&o.Listen, "listen", "", "Address to listen on (default: OS-assigned port on localhost)")
	flags.StringVar(&o.Upstream, "upstream", "", "Fixed upstream base URL; empty selects forward-proxy mode routed by the request's Host header")
	flags.StringVar(&o.Record, "record", "", "Path to write a HAR recording of this session (default: a timestamped file under ~/.ccdump/recordings)")
	flags.StringVar(&o.Replay, "replay", "", "Path to a HAR recording to replay before accepting live traffic")
	flags.BoolVar(&o.List, "list", false, "List recordings under ~/.ccdump/recordings and exit")
	flags.BoolVarP(&o.Continue, "continue", "c", false, "Replay the most recent recording, then continue the session live")
	flags.BoolVar(&o.OtelDebug, "otel-debug", false, "Emit per-exchange trace spans as JSON to stderr")
}

func runRoot(opts *options) error {
	if opts.List {
		return listRecordings(os.Stdout)
	}
	if opts.Continue && opts.Replay != "" {
		return argError{fmt.Errorf("--continue and --replay are mutually exclusive")}
	}

	logger := obs.NewLogger()
	shutdown, err := obs.InitTracing(opts.OtelDebug, os.Stderr)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdown(context.Background())

	thresh, err := config.LoadThresholds("")
	if err != nil {
		return fmt.Errorf("load thresholds: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get cwd: %w", err)
	}
	settings, err := config.LoadSettings(cwd, nil, "")
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	upstream := opts.Upstream
	if upstream == "" {
		upstream = os.Getenv("ANTHROPIC_BASE_URL")
	}
	if upstream == "" {
		upstream = settings.UpstreamURL
	}

	router := events.NewRouter(thresh.RouterQueueDepth)
	router.OnPanic(func(rec any) {
		logger.Error(fmt.Sprintf("subscriber panic recovered: %v", rec))
	})
	go router.Run()
	defer router.Stop()

	p := proxy.New(upstream, nil, router.Post)

	rec, err := attachRecorder(router, opts.Record, logger)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	if rec != nil {
		defer rec.Close()
	}

	startSeq, err := replayBeforeServing(opts, router)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	p.SeedSeq(startSeq)

	handler := proxy.NewServer(p, statusSource{router: router, rec: rec})

	ln, err := net.Listen("tcp", listenAddr(opts.Listen))
	if err != nil {
		return bindError{err}
	}
	fmt.Fprintf(os.Stderr, "ccdump: listening on %s\n", ln.Addr())

	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("server stopped: %v", err))
		}
	}()
	defer srv.Shutdown(context.Background())

	return runUI(router, thresh)
}

func listenAddr(listen string) string {
	if listen == "" {
		return "127.0.0.1:0"
	}
	return listen
}

// statusSource adapts the router and an optional recorder to
// proxy.StatusSource for the /_ccdump/status endpoint.
type statusSource struct {
	router *events.Router
	rec    *recorder.Recorder
}

func (s statusSource) EventsDropped() uint64 { return s.router.EventsDropped() }
func (s statusSource) Recording() bool       { return s.rec != nil }

// attachRecorder opens a HAR writer at path (or a fresh default path
// when empty) and subscribes a recorder to the router. Recording is
// always on: no flag or setting disables it, matching
// spec.md §4.10's "recording enabled by default" framing.
func attachRecorder(router *events.Router, path string, logger logur.Logger) (*recorder.Recorder, error) {
	if path == "" {
		var err error
		path, err = defaultRecordingPath()
		if err != nil {
			return nil, err
		}
	}
	writer, err := archive.OpenWriter(path, archive.Creator{Name: "cc-dump", Version: version})
	if err != nil {
		return nil, err
	}
	rec := recorder.New(writer, version, obs.AsErrorf(logger))

	if idxPath, err := indexPath(); err == nil {
		if index, err := archive.OpenIndex(idxPath); err == nil {
			rec.SetIndex(index, path)
		} else {
			logger.Error(fmt.Sprintf("index unavailable, --list falls back to directory scan: %v", err))
		}
	}

	router.Subscribe(rec)
	return rec, nil
}

// replayBeforeServing replays --replay or (for --continue) the most
// recent recording into the router before the live proxy starts,
// returning the sequence number live traffic should continue from.
func replayBeforeServing(opts *options, router *events.Router) (uint64, error) {
	replayPath := opts.Replay
	if opts.Continue && replayPath == "" {
		var err error
		replayPath, err = latestRecordingPath()
		if err != nil {
			return 1, err
		}
	}
	if replayPath == "" {
		return 1, nil
	}

	entries, err := archive.ReadFile(replayPath)
	if err != nil {
		return 1, err
	}
	replayer.Replay(entries, 1, router.Post)
	return uint64(len(entries)) + 1, nil
}

// runUI launches the Bubble Tea display when stdout/stdin are a TTY;
// otherwise it blocks until interrupted (piped output, CI, etc), since
// the proxy and any recorder keep running on their own goroutines.
func runUI(router *events.Router, thresh config.Thresholds) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return nil
	}

	ch := router.SubscribeQueued(thresh.RouterQueueDepth, nil)
	model := display.New(ch, thresh, display.DefaultTheme())
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
