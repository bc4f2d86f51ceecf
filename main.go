// Command blockworld runs the block world.
//
// It supports three modes:
//  1. "play" (default) runs the interactive console, one world per process
//  2. "serve" runs the HTTP server exposing the REST API, WebSocket updates and an /mcp HTTP endpoint
//  3. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control world dimensions, host/port, config and session directories,
// debug logging, and optional ngrok tunneling for easy external access during
// development.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/blockworld/api"
	"github.com/wricardo/mcp-training/blockworld/game/actionlog"
	"github.com/wricardo/mcp-training/blockworld/game/command"
	"github.com/wricardo/mcp-training/blockworld/game/config"
	"github.com/wricardo/mcp-training/blockworld/game/engine"
	"github.com/wricardo/mcp-training/blockworld/game/service"
	"github.com/wricardo/mcp-training/blockworld/game/session"
	"github.com/wricardo/mcp-training/blockworld/transport/mcp"
	"github.com/wricardo/mcp-training/blockworld/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Block World"
)

// DimensionsPrompt is shown when play starts without dimensions or a config
const DimensionsPrompt = "Enter the length and width of the world: "

// main loads .env, builds the command tree and runs it until a signal arrives.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A second interrupt kills the process, e.g. while play waits for input
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newRootCommand builds the blockworld command with its play, serve and mcp
// subcommands
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:           "blockworld",
		Usage:          "Grasp and move lettered blocks on a grid",
		Version:        Version,
		DefaultCommand: "play",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "Directory containing world configurations",
				Value:   "configs",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Setup logging
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			playCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Run the interactive console",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "length", Usage: "Number of rows"},
			&cli.IntFlag{Name: "width", Usage: "Number of columns"},
			&cli.StringFlag{Name: "config", Usage: "World config ID in --config-dir, or a path to a config JSON file"},
			&cli.StringFlag{Name: "log-file", Usage: "Action log file (default: the config's log_file, then cube_logs.txt)"},
			&cli.Int64Flag{Name: "seed", Usage: "Random seed for block placement (0 means time-seeded)"},
			&cli.BoolFlag{Name: "color", Usage: "Colour blocks with ANSI escapes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := playOptions{
				Length:    cmd.Int("length"),
				Width:     cmd.Int("width"),
				ConfigDir: cmd.String("config-dir"),
				Config:    cmd.String("config"),
				LogFile:   cmd.String("log-file"),
				Seed:      cmd.Int64("seed"),
				Color:     cmd.Bool("color"),
			}
			return runPlay(ctx, opts, os.Stdin, os.Stdout)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "HTTP server host",
				Value:   "localhost",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP server port",
				Value:   8080,
				Sources: cli.EnvVars("PORT"),
			},
			sessionsDirFlag(),
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := initializeServices(ctx, cmd.String("config-dir"), cmd.String("sessions-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer svc.Close()
			go reloadConfigsOnHangup(ctx, svc.Configs)

			log.Printf("Starting %s v%s (mode: serve)", AppName, Version)
			return runHTTPServer(ctx, svc.Game, httpOptions{
				Host:        cmd.String("host"),
				Port:        cmd.Int("port"),
				Ngrok:       cmd.Bool("ngrok"),
				NgrokAuth:   cmd.String("ngrok-auth"),
				NgrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run an MCP stdio server backed by the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "External API to proxy; an internal server is started when it is unreachable",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("BLOCKWORLD_API_URL"),
			},
			sessionsDirFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// The MCP protocol owns stdout. Everything else, including
			// fmt.Printf in the service layers, goes to stderr.
			protocolOut := os.Stdout
			os.Stdout = os.Stderr
			defer func() { os.Stdout = protocolOut }()

			svc, err := initializeServices(ctx, cmd.String("config-dir"), cmd.String("sessions-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer svc.Close()

			log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)
			return runStdioMCPWithInternalServer(ctx, svc.Game, cmd.String("api-url"), os.Stdin, protocolOut)
		},
	}
}

func sessionsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "sessions-dir",
		Usage:   "Directory where sessions are persisted",
		Value:   "sessions",
		Sources: cli.EnvVars("SESSIONS_DIR"),
	}
}

// Play mode

// playOptions configures the interactive console
type playOptions struct {
	Length    int
	Width     int
	ConfigDir string
	Config    string
	LogFile   string
	Seed      int64
	Color     bool
}

// runPlay builds one world, runs the command loop over in and appends the
// action log when the loop ends
func runPlay(ctx context.Context, opts playOptions, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	worldConfig, err := playConfig(opts, reader, out)
	if err != nil {
		return err
	}

	world, err := engine.NewEngineFromConfig(worldConfig)
	if err != nil {
		return fmt.Errorf("failed to create world: %w", err)
	}

	dispatcher := command.NewDispatcher(world, out, opts.Color)
	dispatcher.Execute(command.Show)

	runErr := dispatcher.Run(ctx, reader)

	logFile := opts.LogFile
	if logFile == "" {
		logFile = worldConfig.LogFile
	}
	if logFile == "" {
		logFile = actionlog.DefaultFile
	}
	if err := dispatcher.Recorder().Flush(logFile); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to write action log: %w", err))
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// playConfig resolves the world configuration: a named config, explicit
// dimensions, or dimensions typed at the prompt
func playConfig(opts playOptions, reader *bufio.Reader, out io.Writer) (*engine.WorldConfig, error) {
	worldConfig := engine.DefaultWorldConfig()

	if strings.ContainsAny(opts.Config, `/\`) {
		// A path names the file directly instead of a config in the directory
		loaded, err := engine.LoadWorldConfig(opts.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", opts.Config, err)
		}
		worldConfig = loaded
	} else if opts.Config != "" {
		manager, err := config.NewManager(opts.ConfigDir)
		if err != nil {
			return nil, err
		}
		cached, err := manager.LoadConfig(opts.Config)
		if err != nil {
			return nil, err
		}
		// The manager hands out its cached copy; flags below must not touch it
		copied := *cached
		worldConfig = &copied
	}

	if opts.Length > 0 || opts.Width > 0 {
		if len(worldConfig.Layout) > 0 {
			return nil, fmt.Errorf("config %q has a fixed layout; --length and --width cannot be used with it", opts.Config)
		}
		if opts.Length > 0 {
			worldConfig.Length = opts.Length
		}
		if opts.Width > 0 {
			worldConfig.Width = opts.Width
		}
	} else if opts.Config == "" {
		length, width, err := readDimensions(reader, out)
		if err != nil {
			return nil, err
		}
		worldConfig.Length = length
		worldConfig.Width = width
	}

	if opts.Seed != 0 {
		worldConfig.Seed = opts.Seed
	}

	return worldConfig, nil
}

// readDimensions prompts until two positive integers are entered
func readDimensions(reader *bufio.Reader, out io.Writer) (int, int, error) {
	for {
		fmt.Fprint(out, DimensionsPrompt)

		line, err := reader.ReadString('\n')
		if length, width, ok := parseDimensions(line); ok {
			return length, width, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, 0, fmt.Errorf("no world dimensions given")
			}
			return 0, 0, err
		}

		fmt.Fprintf(out, "Please enter two whole numbers between %d and %d, e.g. '5 5'.\n",
			engine.MinDimension, engine.MaxDimension)
	}
}

func parseDimensions(line string) (int, int, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, false
	}

	length, errL := strconv.Atoi(fields[0])
	width, errW := strconv.Atoi(fields[1])
	if errL != nil || errW != nil {
		return 0, 0, false
	}
	if length < engine.MinDimension || length > engine.MaxDimension ||
		width < engine.MinDimension || width > engine.MaxDimension {
		return 0, 0, false
	}

	return length, width, true
}

// Server modes

// services holds everything serve and mcp share
type services struct {
	Game     service.GameService
	Sessions *session.Manager
	Configs  *config.Manager
}

// Close persists every in-memory session
func (s *services) Close() {
	if err := s.Sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: Failed to save sessions on shutdown: %v", err)
	}
}

// initializeServices wires session/config managers and the game service.
// It also starts background routines, stopped by ctx, that prune stale
// sessions and sessions whose files were deleted.
func initializeServices(ctx context.Context, configDir, sessionsDir string) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	gameService := service.NewGameService(sessionManager, configManager)

	go sessionCleanupRoutine(ctx, sessionManager, time.Hour, 24*time.Hour)
	go filesystemSyncRoutine(ctx, sessionManager, persistence, 5*time.Second)

	return &services{Game: gameService, Sessions: sessionManager, Configs: configManager}, nil
}

// reloadConfigsOnHangup drops cached world configs on SIGHUP so edited files
// are picked up without a restart
func reloadConfigsOnHangup(ctx context.Context, manager *config.Manager) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			manager.RefreshCache()
			log.Printf("Reloaded world configs (%d cached)", manager.Count())
		}
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically removes sessions from memory when their
// files were deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := 0
		for _, sess := range manager.List() {
			if !persistence.Exists(sess.ID) {
				if err := manager.DeleteFromMemory(sess.ID); err == nil {
					pruned++
					log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
				}
			}
		}

		if pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

// httpOptions configures runHTTPServer
type httpOptions struct {
	Host        string
	Port        int
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

// newHandler combines the REST API, WebSocket hub and /mcp endpoint
func newHandler(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer serves the API until ctx ends. If ngrok is enabled, it also
// provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, opts httpOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	handler := newHandler(gameService, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler, opts)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts httpOptions) {
	if opts.NgrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	if err := tunnelServer.Serve(tun); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiAvailable reports whether a block world API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at externalURL when one answers; otherwise it starts an internal HTTP API
// bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, externalURL string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := externalURL
	log.Printf("Checking for external API server at %s...", externalURL)

	if apiAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()
	}

	log.Printf("MCP stdio server ready (API: %s)", baseURL)

	if err := mcp.NewClient(baseURL).Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
