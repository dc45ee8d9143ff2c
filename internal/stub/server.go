// Package stub runs a local stand-in for the remote Hailuo API so the client
// can be exercised without a deployment. It implements just enough of the
// contract to drive the gateway: captcha issuance, registration and login,
// bearer-checked user and admin endpoints, and the 401 behavior the failure
// handling depends on. Challenge verification here is intentionally trivial;
// the real service owns the puzzle protocol.
package stub

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Server is the in-memory stub state.
type Server struct {
	engine *gin.Engine

	mu          sync.Mutex
	users       map[string]string  // username -> password
	userTokens  map[string]string  // token -> username
	adminTokens map[string]bool    // token -> live
	balances    map[string]float64 // username -> balance
	orders      []gin.H

	adminUser string
	adminPass string
}

// New builds the stub with a default admin account (admin/admin).
func New() *Server {
	s := &Server{
		users:       make(map[string]string),
		userTokens:  make(map[string]string),
		adminTokens: make(map[string]bool),
		balances:    make(map[string]float64),
		adminUser:   "admin",
		adminPass:   "admin",
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	api.GET("/captcha", s.captcha)
	api.GET("/config", s.publicConfig)
	api.GET("/security/status", s.securityStatus)
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.GET("/users/me", s.currentUser)
	api.POST("/orders/create", s.createOrder)
	api.GET("/orders", s.listOrders)
	api.POST("/admin/login", s.adminLogin)
	api.GET("/admin/stats", s.adminStats)
	api.GET("/admin/users", s.adminUsers)

	s.engine = engine
	return s
}

// Handler exposes the underlying handler, for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves the stub on addr until the process exits.
func (s *Server) Run(addr string) error {
	log.Infof("stub: serving local API on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) captcha(c *gin.Context) {
	nonce := uuid.NewString()
	c.JSON(http.StatusOK, gin.H{
		"challenge": "stub-challenge-" + nonce[:8],
		"puzzle":    "stub-puzzle-" + nonce[9:13],
		"cipher":    "stub-cipher-" + nonce[14:18],
		"nonce":     nonce[19:23],
		"proof":     "stub-proof-" + nonce[24:28],
		"hint":      "WA==",
	})
}

func (s *Server) publicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"video_price":  0.99,
		"bonus_rate":   0.2,
		"min_recharge": 0.01,
		"max_recharge": 10000,
	})
}

func (s *Server) securityStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ip":           c.ClientIP(),
		"fail_count":   0,
		"is_banned":    false,
		"need_captcha": false,
	})
}

type credentialsRequest struct {
	Username         string  `json:"username"`
	Password         string  `json:"password"`
	CaptchaChallenge string  `json:"captcha_challenge"`
	CaptchaPuzzle    string  `json:"captcha_puzzle"`
	CaptchaCipher    string  `json:"captcha_cipher"`
	CaptchaNonce     string  `json:"captcha_nonce"`
	CaptchaProof     string  `json:"captcha_proof"`
	CaptchaPosition  float64 `json:"captcha_position"`
}

func (s *Server) register(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.CaptchaChallenge == "" || req.CaptchaProof == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "captcha verification failed"})
		return
	}
	if _, exists := s.users[req.Username]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username already exists"})
		return
	}
	s.users[req.Username] = req.Password
	s.balances[req.Username] = 0
	c.JSON(http.StatusOK, s.issueUserToken(req.Username))
}

func (s *Server) login(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if password, ok := s.users[req.Username]; !ok || password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid username or password"})
		return
	}
	c.JSON(http.StatusOK, s.issueUserToken(req.Username))
}

func (s *Server) issueUserToken(username string) gin.H {
	token := uuid.NewString()
	s.userTokens[token] = username
	return gin.H{"access_token": token, "token_type": "bearer"}
}

func (s *Server) currentUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.authedUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       1,
		"username": username,
		"balance":  s.balances[username],
	})
}

func (s *Server) createOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.authedUser(c)
	if !ok {
		return
	}
	prompt := c.PostForm("prompt")
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "prompt is required"})
		return
	}
	order := gin.H{
		"id":         len(s.orders) + 1,
		"prompt":     prompt,
		"model_name": c.PostForm("model_name"),
		"cost":       0.99,
		"status":     "pending",
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"user":       username,
	}
	s.orders = append(s.orders, order)
	c.JSON(http.StatusOK, order)
}

func (s *Server) listOrders(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authedUser(c); !ok {
		return
	}
	orders := s.orders
	if orders == nil {
		orders = []gin.H{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) adminLogin(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Username != s.adminUser || req.Password != s.adminPass {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid username or password"})
		return
	}
	token := uuid.NewString()
	s.adminTokens[token] = true
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) adminStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authedAdmin(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_users":  len(s.users),
		"total_orders": len(s.orders),
	})
}

func (s *Server) adminUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authedAdmin(c) {
		return
	}
	users := make([]gin.H, 0, len(s.users))
	id := 1
	for username := range s.users {
		users = append(users, gin.H{"id": id, "username": username, "balance": s.balances[username]})
		id++
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

func (s *Server) authedUser(c *gin.Context) (string, bool) {
	username, ok := s.userTokens[bearerToken(c)]
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return "", false
	}
	return username, true
}

func (s *Server) authedAdmin(c *gin.Context) bool {
	if !s.adminTokens[bearerToken(c)] {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return false
	}
	return true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// Addr formats a listen address from a port.
func Addr(port int) string { return fmt.Sprintf("127.0.0.1:%d", port) }
