package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/buttoners/staffroom/internal/backup"
	"github.com/buttoners/staffroom/internal/handler"
	"github.com/buttoners/staffroom/internal/ledger"
	"github.com/buttoners/staffroom/internal/middleware"
	"github.com/buttoners/staffroom/internal/push"
	"github.com/buttoners/staffroom/internal/store"
	ws "github.com/buttoners/staffroom/internal/websocket"
)

// Config holds the non-database server configuration.
type Config struct {
	DBPath          string
	SecureCookie    bool
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	pointsH       *handler.PointsHandler
	adminH        *handler.AdminHandler
	productH      *handler.ProductHandler
	noticeH       *handler.NoticeHandler
	boardH        *handler.BoardHandler
	cleaningH     *handler.CleaningHandler
	gameH         *handler.GameHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	productStore := store.NewProductStore(db)
	txStore := store.NewTransactionStore(db)
	settingsStore := store.NewSettingsStore(db)
	noticeStore := store.NewNoticeStore(db)
	boardStore := store.NewBoardStore(db)
	cleaningStore := store.NewCleaningStore(db)
	gameStore := store.NewGameStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	engine := ledger.New(db, settingsStore, logger.With("component", "ledger"))

	backupMgr := backup.NewManager(cfg.DBPath, db, backupStore, logger.With("component", "backup"))
	if s3, err := settingsStore.GetS3Settings(); err == nil {
		backupMgr.Configure(backup.S3Config{
			Endpoint:  s3["s3_endpoint"],
			Bucket:    s3["s3_bucket"],
			Region:    s3["s3_region"],
			AccessKey: s3["s3_access_key"],
			SecretKey: s3["s3_secret_key"],
		})
	}

	var pushSvc *push.Service
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, logger.With("component", "push"))
	}

	rateLimiter := middleware.NewRateLimiter()

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, rateLimiter, cfg.SecureCookie, logger.With("component", "auth")),
		pointsH:       handler.NewPointsHandler(engine, txStore, hub, logger.With("component", "points")),
		adminH:        handler.NewAdminHandler(engine, userStore, txStore, settingsStore, backupStore, backupMgr, hub, logger.With("component", "admin")),
		productH:      handler.NewProductHandler(productStore, userStore, hub, logger.With("component", "product")),
		noticeH:       handler.NewNoticeHandler(noticeStore, pushStore, pushSvc, hub, logger.With("component", "notice")),
		boardH:        handler.NewBoardHandler(boardStore, hub, logger.With("component", "board")),
		cleaningH:     handler.NewCleaningHandler(cleaningStore, hub, logger.With("component", "cleaning")),
		gameH:         handler.NewGameHandler(gameStore, hub, logger.With("component", "game")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   rateLimiter,
		backupManager: backupMgr,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /api/auth/login", s.authH.Login)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything below requires a valid session.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Points API routes
	mux.HandleFunc("POST /api/points/purchase", s.pointsH.Purchase)
	mux.HandleFunc("POST /api/points/gift", s.pointsH.Gift)
	mux.HandleFunc("POST /api/points/refund", s.pointsH.Refund)
	mux.HandleFunc("GET /api/points/transactions", s.pointsH.Transactions)

	// Product API routes
	mux.HandleFunc("GET /api/products", s.productH.List)
	mux.Handle("POST /api/products", middleware.RequireAdmin(http.HandlerFunc(s.productH.Create)))
	mux.Handle("PUT /api/products/{id}", middleware.RequireAdmin(http.HandlerFunc(s.productH.Update)))
	mux.Handle("DELETE /api/products/{id}", middleware.RequireAdmin(http.HandlerFunc(s.productH.Delete)))
	mux.Handle("POST /api/products/{id}/options", middleware.RequireAdmin(http.HandlerFunc(s.productH.CreateOption)))
	mux.Handle("DELETE /api/products/{id}/options/{optionId}", middleware.RequireAdmin(http.HandlerFunc(s.productH.DeleteOption)))

	// Favorites
	mux.HandleFunc("GET /api/favorites", s.productH.ListFavorites)
	mux.HandleFunc("POST /api/products/{id}/favorite", s.productH.AddFavorite)
	mux.HandleFunc("DELETE /api/products/{id}/favorite", s.productH.RemoveFavorite)

	// Notice API routes
	mux.HandleFunc("GET /api/notices", s.noticeH.List)
	mux.HandleFunc("GET /api/notices/{id}", s.noticeH.Get)
	mux.HandleFunc("POST /api/notices", s.noticeH.Create)
	mux.HandleFunc("PUT /api/notices/{id}", s.noticeH.Update)
	mux.HandleFunc("DELETE /api/notices/{id}", s.noticeH.Delete)

	// Board API routes
	mux.HandleFunc("GET /api/board/posts", s.boardH.ListPosts)
	mux.HandleFunc("POST /api/board/posts", s.boardH.CreatePost)
	mux.HandleFunc("GET /api/board/posts/{id}", s.boardH.GetPost)
	mux.HandleFunc("PUT /api/board/posts/{id}", s.boardH.UpdatePost)
	mux.HandleFunc("DELETE /api/board/posts/{id}", s.boardH.DeletePost)
	mux.HandleFunc("POST /api/board/posts/{id}/like", s.boardH.LikePost)
	mux.HandleFunc("PUT /api/board/posts/{id}/lock", s.boardH.SetLocked)
	mux.HandleFunc("GET /api/board/posts/{id}/comments", s.boardH.ListComments)
	mux.HandleFunc("POST /api/board/posts/{id}/comments", s.boardH.CreateComment)
	mux.HandleFunc("DELETE /api/board/comments/{id}", s.boardH.DeleteComment)

	// Cleaning API routes
	mux.HandleFunc("GET /api/cleaning/tasks", s.cleaningH.ListTasks)
	mux.HandleFunc("POST /api/cleaning/tasks", s.cleaningH.CreateTask)
	mux.HandleFunc("PUT /api/cleaning/tasks/{id}", s.cleaningH.UpdateTask)
	mux.HandleFunc("DELETE /api/cleaning/tasks/{id}", s.cleaningH.DeleteTask)
	mux.HandleFunc("POST /api/cleaning/tasks/{id}/complete", s.cleaningH.Complete)
	mux.HandleFunc("GET /api/cleaning/logs", s.cleaningH.ListLogs)
	mux.HandleFunc("GET /api/cleaning/leaderboard", s.cleaningH.Leaderboard)

	// Game inventory API routes
	mux.HandleFunc("GET /api/games", s.gameH.List)
	mux.HandleFunc("POST /api/games", s.gameH.Create)
	mux.HandleFunc("PUT /api/games/{id}", s.gameH.Update)
	mux.HandleFunc("DELETE /api/games/{id}", s.gameH.Delete)

	// Push notification API routes
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Admin API routes
	mux.Handle("POST /api/admin/points/adjust", middleware.RequireAdmin(http.HandlerFunc(s.adminH.Adjust)))
	mux.Handle("POST /api/admin/points/distribute", middleware.RequireAdmin(http.HandlerFunc(s.adminH.Distribute)))
	mux.Handle("GET /api/admin/points/policy", middleware.RequireAdmin(http.HandlerFunc(s.adminH.GetPolicy)))
	mux.Handle("PUT /api/admin/points/policy", middleware.RequireAdmin(http.HandlerFunc(s.adminH.UpdatePolicy)))
	mux.Handle("GET /api/admin/staff", middleware.RequireAdmin(http.HandlerFunc(s.adminH.ListStaff)))
	mux.Handle("GET /api/admin/transactions", middleware.RequireAdmin(http.HandlerFunc(s.adminH.AllTransactions)))
	mux.Handle("POST /api/admin/backups", middleware.RequireAdmin(http.HandlerFunc(s.adminH.RunBackup)))
	mux.Handle("GET /api/admin/backups", middleware.RequireAdmin(http.HandlerFunc(s.adminH.ListBackups)))
	mux.Handle("GET /api/admin/backups/{id}/download", middleware.RequireAdmin(http.HandlerFunc(s.adminH.DownloadBackup)))
	mux.Handle("PUT /api/admin/settings/s3", middleware.RequireAdmin(http.HandlerFunc(s.adminH.UpdateS3Config)))

	// Real-time sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
