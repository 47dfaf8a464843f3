package devapi

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	contextEmailKey = "devapi_email"
	shutdownTimeout = 5 * time.Second
)

// Server holds the dev API state.
type Server struct {
	cfg    Config
	users  *UserStore
	logger *zap.Logger
	now    func() time.Time
}

// NewServer validates cfg and seeds the user store.
func NewServer(cfg Config, logger *zap.Logger) (*Server, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	users, err := NewUserStore(cfg.Users, cfg.Cost)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:    cfg,
		users:  users,
		logger: logger.Named("devapi"),
		now:    time.Now,
	}, nil
}

// Handler returns the gin engine serving the API.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": s.cfg.Version})
	})
	router.POST("/sessions", s.createSession)

	authed := router.Group("/", s.requireBearer())
	authed.GET("/me", s.me)
	authed.GET("/users", s.requirePermission("users.list"), s.listUsers)
	return router
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) createSession(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Email) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_json", "message": "email and password are required"})
		return
	}

	a, err := s.users.authenticate(in.Email, in.Password)
	if err != nil {
		s.logger.Info("sign-in rejected", zap.String("email", in.Email))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "E-mail or password incorrect."})
		return
	}

	token, err := mintAccessToken(a, s.cfg.Issuer, s.cfg.SigningKey, s.cfg.TokenTTL, s.now())
	if err != nil {
		s.logger.Error("mint access token", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	refresh, err := newRefreshToken()
	if err != nil {
		s.logger.Error("issue refresh token", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"refreshToken": refresh,
		"permissions":  a.permissions,
		"roles":        a.roles,
	})
}

func (s *Server) me(c *gin.Context) {
	a, ok := s.users.lookup(c.GetString(contextEmailKey))
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":       a.email,
		"permissions": a.permissions,
		"roles":       a.roles,
	})
}

func (s *Server) listUsers(c *gin.Context) {
	s.users.mu.RLock()
	emails := make([]string, 0, len(s.users.accounts))
	for email := range s.users.accounts {
		emails = append(emails, email)
	}
	s.users.mu.RUnlock()
	sort.Strings(emails)
	c.JSON(http.StatusOK, gin.H{"users": emails})
}

// requireBearer validates the Authorization header and stores the subject.
func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_missing"})
			return
		}
		email, err := parseAccessToken(strings.TrimSpace(raw), s.cfg.Issuer, s.cfg.SigningKey, s.now)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_invalid"})
			return
		}
		c.Set(contextEmailKey, email)
		c.Next()
	}
}

func (s *Server) requirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := s.users.lookup(c.GetString(contextEmailKey))
		if !ok || !slices.Contains(a.permissions, permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", s.now().Sub(start)))
	}
}
