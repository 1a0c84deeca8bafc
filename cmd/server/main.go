package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/abaj8494/draw/internal/asset"
	"github.com/abaj8494/draw/internal/auth"
	"github.com/abaj8494/draw/internal/boards"
	"github.com/abaj8494/draw/internal/config"
	"github.com/abaj8494/draw/internal/export"
	mw "github.com/abaj8494/draw/internal/middleware"
	"github.com/abaj8494/draw/internal/render"
	"github.com/abaj8494/draw/internal/session"
	"github.com/abaj8494/draw/internal/store"
	"github.com/abaj8494/draw/internal/typeid"
)

// The scratch board is joinable without an account. It lives in the hub
// like any other board but is never listed or owned.
const scratchBoardID = "board_scratch"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPG(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		st = pg
	} else {
		slog.Warn("no database configured, boards are kept in memory")
		st = store.NewMemory()
	}

	autosaver, err := store.NewAutosaver(cfg.AutosaveDir)
	if err != nil {
		slog.Error("create autosaver", "error", err)
		os.Exit(1)
	}

	images := render.NewImageCache(asset.Fetcher(cfg.AssetDir), nil)
	assetHandler := asset.NewHandler(cfg.AssetDir, images)
	exporter := export.New(render.New(images), images)

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	hub := session.NewHub(st, autosaver)
	go hub.Run()

	boardService := boards.NewService(st, autosaver, hub)
	boardHandler := boards.NewHandler(boardService)

	exportHandler := export.NewHandler(exporter, images, boardService)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset endpoints (public, used by the scratch board and authenticated users)
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Document export (public, the client ships the document in the body)
	r.HandleFunc("/export", exportHandler.ExportDocument).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/boards", boardHandler.List).Methods("GET")
	api.HandleFunc("/boards", boardHandler.Create).Methods("POST")
	api.HandleFunc("/boards/{boardId}", boardHandler.Get).Methods("GET")
	api.HandleFunc("/boards/{boardId}", boardHandler.Rename).Methods("PATCH")
	api.HandleFunc("/boards/{boardId}", boardHandler.Delete).Methods("DELETE")
	api.HandleFunc("/boards/{boardId}/save", boardHandler.Save).Methods("POST")
	api.HandleFunc("/boards/{boardId}/document", boardHandler.GetDocument).Methods("GET")
	api.HandleFunc("/boards/{boardId}/autosave", boardHandler.GetAutosave).Methods("GET")
	api.HandleFunc("/boards/{boardId}/export", exportHandler.ExportBoard).Methods("GET")

	// WebSocket endpoint
	origins := originPatterns(cfg.AllowedOrigins)
	r.HandleFunc("/ws/board/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, st, origins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Flush dirty boards before the listener stops
		slog.Info("saving all boards...")
		hub.SaveAll()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, st store.Store, origins []string) {
	vars := mux.Vars(r)
	boardID := vars["boardId"]

	var userID string
	var displayName string

	if boardID == scratchBoardID {
		// Anonymous user for the scratch board
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Guest"
	} else {
		// Auth via query param for real boards
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		// Check ownership
		b, err := st.GetBoard(r.Context(), boardID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "board not found", http.StatusNotFound)
			} else {
				slog.Error("get board", "error", err, "board", boardID)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		if b.OwnerID != userID {
			http.Error(w, "not the board owner", http.StatusForbidden)
			return
		}

		// Get user display name
		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := session.NewClient(hub, conn, userID, displayName, boardID, typeid.NewClientID())

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns converts the comma-separated origin list into the
// host patterns websocket.Accept expects.
func originPatterns(allowed string) []string {
	var patterns []string
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		origin = strings.TrimPrefix(origin, "http://")
		origin = strings.TrimPrefix(origin, "https://")
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}
