// Command mars-rover runs the Mars rover mission server.
//
// It supports these modes:
//  1. "server" (default): runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp": runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "prompt": the interactive console mission
//  4. "run": executes mission files and prints the final rover poses
//  5. "validate": checks every mission file in a directory
//
// Flags control host/port, mission and session storage, logging, and optional
// ngrok tunneling for easy external access during development. Every flag can
// also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mars-rover/api"
	"github.com/wricardo/mars-rover/game/config"
	"github.com/wricardo/mars-rover/game/engine"
	"github.com/wricardo/mars-rover/game/service"
	"github.com/wricardo/mars-rover/game/session"
	"github.com/wricardo/mars-rover/transport/mcp"
	"github.com/wricardo/mars-rover/transport/websocket"
	"github.com/wricardo/mars-rover/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mars Rover Mission Server"
)

// Session store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// storageOptions selects where missions are read and sessions are kept
type storageOptions struct {
	MissionDir  string
	Store       string
	SessionsDir string
	SQLitePath  string
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "mars-rover",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "mission-dir",
				Value:   "missions",
				Usage:   "Directory containing mission files",
				Sources: cli.EnvVars("MISSION_DIR"),
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   StoreFile,
				Usage:   "Session store: file, sqlite or memory",
				Sources: cli.EnvVars("SESSION_STORE"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for the file session store",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Value:   "sessions.db",
				Usage:   "Database file for the sqlite session store",
				Sources: cli.EnvVars("SQLITE_PATH"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags: []cli.Flag{
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
					roverService, err := initializeServices(ctx, storageFromFlags(cmd))
					if err != nil {
						return fmt.Errorf("failed to initialize services: %w", err)
					}
					return runHTTPServer(ctx, roverService, httpOptions{
						Addr:        fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port")),
						Ngrok:       cmd.Bool("ngrok"),
						NgrokAuth:   cmd.String("ngrok-auth"),
						NgrokDomain: cmd.String("ngrok-domain"),
					})
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					roverService, err := initializeServices(ctx, storageFromFlags(cmd))
					if err != nil {
						return fmt.Errorf("failed to initialize services: %w", err)
					}
					externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
					return runStdioMCPWithInternalServer(ctx, roverService, externalURL)
				},
			},
			{
				Name:  "prompt",
				Usage: "Enter a plateau and rovers at the console and watch them move",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "rovers",
						Value: 2,
						Usage: "Number of rovers to land",
					},
					&cli.DurationFlag{
						Name:  "move-delay",
						Value: 2 * time.Second,
						Usage: "Time a rover takes to move one grid point",
					},
					&cli.DurationFlag{
						Name:  "turn-delay",
						Value: time.Second,
						Usage: "Time a rover takes to turn",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					eng := engine.NewController(engine.WithDelays(cmd.Duration("move-delay"), cmd.Duration("turn-delay")))
					return runPrompt(ctx, os.Stdin, os.Stdout, eng, cmd.Int("rovers"))
				},
			},
			{
				Name:      "run",
				Usage:     "Execute mission files and print the final rover poses",
				ArgsUsage: "<mission file>...",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "move-delay",
						Usage: "Time a rover takes to move one grid point",
					},
					&cli.DurationFlag{
						Name:  "turn-delay",
						Usage: "Time a rover takes to turn",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return cli.Exit("at least one mission file is required", 2)
					}
					opts := []engine.Option{
						engine.WithDelays(cmd.Duration("move-delay"), cmd.Duration("turn-delay")),
						engine.WithStepObserver(logStep),
					}
					return runMissionFiles(os.Stdout, cmd.Args().Slice(), opts...)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate every mission file in a directory",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dir := cmd.Args().First()
					if dir == "" {
						dir = cmd.String("mission-dir")
					}
					results, err := validate.Dir(dir)
					if err != nil {
						return err
					}
					if !validate.Report(os.Stdout, results) {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
		},
	}
}

// setupLogging configures the global zerolog logger. Logs go to stderr so
// stdout stays free for MCP stdio and prompt output.
func setupLogging(level string, debug bool) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func storageFromFlags(cmd *cli.Command) storageOptions {
	return storageOptions{
		MissionDir:  cmd.String("mission-dir"),
		Store:       cmd.String("store"),
		SessionsDir: cmd.String("sessions-dir"),
		SQLitePath:  cmd.String("sqlite-path"),
	}
}

// initializeServices wires session/mission managers and the rover service.
// It also starts background routines that prune stale sessions until ctx is
// done.
func initializeServices(ctx context.Context, opts storageOptions) (service.RoverService, error) {
	missionManager, err := config.NewManager(opts.MissionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create mission manager: %w", err)
	}

	persistence, err := newPersistence(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	var sessionManager *session.Manager
	if persistence == nil {
		sessionManager = session.NewManager()
	} else {
		sessionManager = session.NewManagerWithPersistence(persistence)
		if err := sessionManager.LoadPersistedSessions(); err != nil {
			log.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	}

	roverService := service.NewRoverService(sessionManager, missionManager)

	go sessionCleanupRoutine(ctx, sessionManager)
	if persistence != nil {
		go storeSyncRoutine(ctx, sessionManager, persistence)
	}

	if closer, ok := persistence.(io.Closer); ok {
		go func() {
			<-ctx.Done()
			if err := sessionManager.SaveAllSessions(); err != nil {
				log.Warn().Err(err).Msg("failed to save sessions on shutdown")
			}
			closer.Close()
		}()
	}

	log.Info().
		Str("missions", opts.MissionDir).
		Str("store", opts.Store).
		Int("sessions", sessionManager.Count()).
		Msg("services initialized")

	return roverService, nil
}

// newPersistence returns nil for the memory store
func newPersistence(opts storageOptions) (session.SessionPersistence, error) {
	switch opts.Store {
	case StoreFile, "":
		return session.NewFilePersistence(opts.SessionsDir)
	case StoreSQLite:
		return session.NewSQLitePersistence(opts.SQLitePath)
	case StoreMemory:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown session store %q (want %s, %s or %s)", opts.Store, StoreFile, StoreSQLite, StoreMemory)
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within a day.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// storeSyncRoutine drops sessions from memory once they disappear from the
// store, so deleting a session file ends the session.
func storeSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := 0
		for _, sess := range manager.List() {
			if persistence.Exists(sess.ID) {
				continue
			}
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				log.Info().Str("session", sess.ID).Msg("pruned session from memory (removed from store)")
			}
		}

		if pruned > 0 {
			log.Info().Int("pruned", pruned).Msg("store sync")
		}
	}
}

// httpOptions configures runHTTPServer
type httpOptions struct {
	Addr        string
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

// newHandler combines the REST API, WebSocket hub, and the /mcp endpoint
func newHandler(roverService service.RoverService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(roverService, hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHTTPHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// mcpHTTPHandler answers single JSON-RPC messages posted to /mcp
func mcpHTTPHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server and, if enabled, an ngrok tunnel. It
// returns after ctx is done and the server has shut down.
func runHTTPServer(ctx context.Context, roverService service.RoverService, opts httpOptions) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	handler := newHandler(roverService, hub, "http://"+opts.Addr)

	httpServer := &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", opts.Addr).
			Str("api", "http://"+opts.Addr+"/api").
			Str("ws", "ws://"+opts.Addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+opts.Addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler, opts)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts httpOptions) {
	if opts.NgrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Info().Str("domain", opts.NgrokDomain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening at externalURL; otherwise it starts an internal HTTP API
// on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, roverService service.RoverService, externalURL string) error {
	baseURL := externalURL

	log.Info().Str("url", externalURL).Msg("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(roverService, hub),
		}

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()

		baseURL = "http://" + listener.Addr().String()
		log.Info().Str("url", baseURL).Msg("started internal HTTP server for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func logStep(step engine.StepRecord) {
	log.Debug().
		Int("step", step.StepNumber).
		Int("rover", step.Rover).
		Str("command", step.Command.String()).
		Int("x", step.To.X).
		Int("y", step.To.Y).
		Str("facing", step.FacingAfter.String()).
		Bool("moved", step.Moved).
		Msg("rover step")
}
