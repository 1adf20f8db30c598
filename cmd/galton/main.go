// ABOUTME: CLI entrypoint for the galton model editor with server, workbench, and check modes.
// ABOUTME: Wires together the editor API, sqlite archive, formula workbench TUI, and signal handling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/galton/editor"
	"github.com/2389-research/galton/model"
	archive "github.com/2389-research/galton/store"
	"github.com/2389-research/galton/tui"
)

var version = "dev"

// cleanupInterval is how often the server sweeps idle editing sessions.
const cleanupInterval = 5 * time.Minute

// config holds all CLI configuration parsed from flags and positional arguments.
type config struct {
	serverMode  bool
	port        int
	dbPath      string
	tuiMode     bool
	checkOnly   bool
	verbose     bool
	showVersion bool
	modelFile   string
}

func main() {
	loadDotEnvAuto()

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("galton %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags parses command-line flags and returns a populated config.
func parseFlags() config {
	var cfg config

	fs := flag.NewFlagSet("galton", flag.ContinueOnError)
	fs.BoolVar(&cfg.serverMode, "server", false, "Start the HTTP editor server")
	fs.IntVar(&cfg.port, "port", 0, "Override the server port from GALTON_BIND")
	fs.StringVar(&cfg.dbPath, "db", "", "Path to the sqlite model archive (default: GALTON_DB)")
	fs.BoolVar(&cfg.tuiMode, "tui", false, "Open the model file in the terminal formula workbench")
	fs.BoolVar(&cfg.checkOnly, "check", false, "Lint a model file and exit without opening it")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if fs.NArg() > 0 {
		cfg.modelFile = fs.Arg(0)
	}

	return cfg
}

// run dispatches to the appropriate mode based on the config.
// Returns an exit code: 0 for success, 1 for failure.
func run(cfg config) int {
	if cfg.serverMode {
		return runServer(cfg)
	}

	if cfg.modelFile == "" {
		printHelp(os.Stderr, version)
		return 0
	}

	if cfg.checkOnly {
		return checkModel(cfg)
	}

	// A bare model file opens the workbench, matching the -tui flag.
	return runWorkbench(cfg)
}

// checkModel lints a model file and prints one diagnostic per line.
// Returns 1 if any diagnostic has error severity.
func checkModel(cfg config) int {
	m, err := model.LoadFile(cfg.modelFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	diags := model.Lint(m)

	if cfg.verbose {
		fmt.Fprintf(os.Stderr, "%s: %d nodes, %d edges, %d diagnostics\n",
			cfg.modelFile, len(m.Nodes), len(m.Edges), len(diags))
	}

	hasErrors := false
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s %s", d.Severity, d.Rule)
		if d.NodeID != "" {
			fmt.Fprintf(os.Stderr, " %s", d.NodeID)
		}
		if d.EdgeID != "" {
			fmt.Fprintf(os.Stderr, " %s", d.EdgeID)
		}
		fmt.Fprintf(os.Stderr, " %s\n", d.Message)

		if d.Severity == "error" {
			hasErrors = true
		}
	}

	if hasErrors {
		fmt.Fprintln(os.Stderr, "Model has errors.")
		return 1
	}

	fmt.Println("Model is valid.")
	return 0
}

// runWorkbench opens a model file in the interactive formula workbench.
// Edits stay in the session; use the server API to persist models.
func runWorkbench(cfg config) int {
	m, err := model.LoadFile(cfg.modelFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	store := editor.NewStore(editor.DefaultMaxSessions, editor.DefaultSessionTTL)
	sess := store.Create(m)

	app := tui.NewAppModel(sess, editor.NewContextStore())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}

// resolveBind applies the -port override to the configured bind address.
// Only the port changes, so the loopback check done at config time still holds.
func resolveBind(bind string, port int) string {
	if port == 0 {
		return bind
	}
	host, _, err := net.SplitHostPort(bind)
	if err != nil || host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// runServer starts the HTTP editor server with the sqlite archive attached.
func runServer(cfg config) int {
	envCfg, err := editor.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	bind := resolveBind(envCfg.Bind, cfg.port)

	dbPath := envCfg.DBPath
	if cfg.dbPath != "" {
		dbPath = cfg.dbPath
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create archive directory: %v\n", err)
		return 1
	}

	db, err := archive.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer db.Close()

	if cfg.verbose {
		fmt.Fprintf(os.Stderr, "[config] bind=%s db=%s auth=%s\n", bind, dbPath, envStatus("GALTON_AUTH_TOKEN"))
	}

	sessions := editor.NewStore(editor.DefaultMaxSessions, editor.DefaultSessionTTL)
	stopCleanup := sessions.StartCleanup(cleanupInterval)
	defer stopCleanup()

	opts := []editor.ServerOption{editor.WithArchive(db)}
	if envCfg.AuthToken != "" {
		opts = append(opts, editor.WithAuthToken(envCfg.AuthToken))
	}
	server := editor.NewServer(sessions, opts...)

	// Set up context with signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    bind,
		Handler: server,
	}

	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	fmt.Fprintf(os.Stderr, "listening on %s\n", bind)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}
