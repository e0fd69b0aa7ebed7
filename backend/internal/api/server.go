// Package api exposes the chat backend over HTTP and WebSocket.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"soceyo/backend/internal/auth"
	"soceyo/backend/internal/constants"
	"soceyo/backend/internal/graph"
	"soceyo/backend/internal/media"
	"soceyo/backend/internal/presence"
	"soceyo/backend/internal/realtime"
	"soceyo/backend/pkg/logger"
)

// Repository is the slice of the graph store used by the HTTP handlers
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, in graph.NewUser) (*graph.User, error)
	GetUserByID(ctx context.Context, userID string) (*graph.User, error)
	GetUserByEmail(ctx context.Context, email string) (*graph.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]graph.User, error)
	UpdateUser(ctx context.Context, userID string, update graph.UserUpdate) (*graph.User, error)

	CreateConversation(ctx context.Context, in graph.NewConversation) (*graph.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*graph.Conversation, error)
	ListUserConversations(ctx context.Context, userID string) ([]graph.Conversation, error)
	AddMember(ctx context.Context, conversationID, userID string) (*graph.Conversation, error)
	RemoveMember(ctx context.Context, conversationID, userID string) (*graph.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error

	CreateMessage(ctx context.Context, in graph.NewMessage) (*graph.MessageRecord, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]graph.MessageRecord, error)
	UpdateMessage(ctx context.Context, messageID, senderID, content string) (*graph.MessageRecord, error)
	DeleteMessage(ctx context.Context, messageID, senderID string) (string, error)

	CreateFile(ctx context.Context, file graph.File) (*graph.File, error)
	GetFile(ctx context.Context, fileID string) (*graph.File, error)
	DeleteFile(ctx context.Context, fileID, uploaderID string) error
}

// Options tunes the HTTP surface
type Options struct {
	Production     bool
	PublicBaseURL  string
	CORSOrigins    []string
	MaxUploadBytes int64
}

// Server holds the dependencies shared by all handlers
type Server struct {
	ctx      context.Context
	repo     Repository
	presence *presence.Store
	media    *media.Store
	tokens   *auth.TokenIssuer
	registry *realtime.Registry
	chat     *realtime.Handler
	upgrader websocket.Upgrader
	opts     Options
	logger   *zap.Logger
}

// NewServer wires the handlers. ctx bounds the lifetime of live sockets.
func NewServer(ctx context.Context, repo Repository, presenceStore *presence.Store, mediaStore *media.Store, tokens *auth.TokenIssuer, registry *realtime.Registry, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	s := &Server{
		ctx:      ctx,
		repo:     repo,
		presence: presenceStore,
		media:    mediaStore,
		tokens:   tokens,
		registry: registry,
		chat:     realtime.NewHandler(registry, repo, repo, presenceStore),
		opts:     opts,
		logger:   logger.Named("api"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      s.checkOrigin,
	}
	return s
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	if s.opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(s.cors())
	router.MaxMultipartMemory = s.opts.MaxUploadBytes

	router.GET("/health", s.health)

	// Socket identity is declared per frame; membership is checked per frame
	router.GET("/ws/conversations/:id", s.serveChat)

	public := router.Group("/api")
	{
		public.POST("/register", s.register)
		public.POST("/login", s.login)
		public.POST("/token/refresh", s.refresh)
		public.GET("/files/:id/content", s.fileContent)
	}

	api := router.Group("/api")
	api.Use(s.requireAuth())
	{
		api.POST("/logout", s.logout)

		api.GET("/users/me", s.me)
		api.PUT("/users/me", s.updateMe)
		api.GET("/users/:id", s.getUser)
		api.GET("/users/:id/presence", s.userPresence)

		api.POST("/conversations", s.createConversation)
		api.GET("/conversations", s.listConversations)
		api.GET("/conversations/:id", s.getConversation)
		api.DELETE("/conversations/:id", s.deleteConversation)
		api.POST("/conversations/:id/members", s.addMember)
		api.DELETE("/conversations/:id/members/:userId", s.removeMember)
		api.GET("/conversations/:id/messages", s.listMessages)

		api.POST("/messages", s.sendMessage)
		api.PUT("/messages/:id", s.updateMessage)
		api.DELETE("/messages/:id", s.deleteMessage)

		api.POST("/files", s.uploadFile)
		api.GET("/files/:id", s.getFile)
		api.DELETE("/files/:id", s.deleteFile)

		api.GET("/active-users", s.activeUsers)
		api.POST("/presence/heartbeat", s.heartbeat)
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "graph": "ok", "presence": "ok"}
	code := http.StatusOK

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("Graph health check failed", zap.Error(err))
		status["status"] = "unavailable"
		status["graph"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if _, err := s.presence.IsActive(ctx, "health"); err != nil {
		s.logger.Warn("Presence health check failed", zap.Error(err))
		status["presence"] = "unreachable"
		if code == http.StatusOK {
			status["status"] = "degraded"
		}
	}

	status["rooms"] = s.registry.RoomCount()
	status["sessions"] = s.registry.SessionCount()
	c.JSON(code, status)
}

// pageSize parses the limit query parameter, clamping it to the maximum page
func pageSize(raw string) (int, bool) {
	if raw == "" {
		return constants.DefaultMessagePageSize, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > constants.MaxMessagePageSize {
		n = constants.MaxMessagePageSize
	}
	return n, true
}
