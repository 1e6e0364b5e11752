package hubtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub"
)

// Маршруты поддельного AI Hub. Используются как ключи ForceStatus.
const (
	RouteHealth           = "/api/health"
	RouteRegister         = "/api/auth/register"
	RouteLogin            = "/api/auth/login"
	RouteProfile          = "/api/auth/profile"
	RouteVerify           = "/api/auth/verify"
	RoutePrompts          = "/api/prompts"
	RoutePrompt           = "/api/prompts/:id"
	RouteVectorStores     = "/api/vectorstores"
	RouteVectorStore      = "/api/vectorstores/:id"
	RouteVectorEmbeddings = "/api/vectorstores/:id/embeddings"
)

type account struct {
	user     hub.User
	password string
}

type store struct {
	hub.VectorStore
	embeddings []hub.Embedding
}

// Server — поддельный AI Hub в памяти.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	healthy  bool
	forced   map[string]int
	accounts map[string]*account
	tokens   map[string]string
	prompts  []hub.Prompt
	stores   map[string]*store
	requests []string
}

// NewServer запускает поддельный AI Hub и останавливает его в t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := newServer()
	t.Cleanup(s.Close)
	return s
}

func newServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		healthy:  true,
		forced:   make(map[string]int),
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		stores:   make(map[string]*store),
	}
	s.srv = httptest.NewServer(s.router())
	return s
}

// URL возвращает базовый адрес сервера.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close останавливает сервер.
func (s *Server) Close() {
	s.srv.Close()
}

// SetHealthy переключает ответ /api/health между 200 и 503.
func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// ForceStatus заставляет маршрут отвечать status до вызова ClearForced.
// route — шаблон gin, например RouteVectorEmbeddings.
func (s *Server) ForceStatus(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[method+" "+route] = status
}

// ClearForced снимает все принудительные статусы.
func (s *Server) ClearForced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = make(map[string]int)
}

// AddUser регистрирует пользователя заранее, чтобы регистрация получила 409.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{
		user:     hub.User{ID: uuid.NewString(), Email: email, Role: "user"},
		password: password,
	}
}

// Requests возвращает журнал запросов в виде "METHOD /path" в порядке поступления.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Prompts возвращает сохранённые промпты.
func (s *Server) Prompts() []hub.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hub.Prompt(nil), s.prompts...)
}

// VectorStoreCount возвращает число векторных хранилищ.
func (s *Server) VectorStoreCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// EmbeddingCount возвращает число эмбеддингов во всех хранилищах.
func (s *Server) EmbeddingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.stores {
		n += len(st.embeddings)
	}
	return n
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.journal, s.faults)

	r.GET(RouteHealth, s.health)

	r.POST(RouteRegister, s.register)
	r.POST(RouteLogin, s.login)
	r.GET(RouteProfile, s.auth, s.profile)
	r.GET(RouteVerify, s.auth, s.verify)

	r.GET(RoutePrompts, s.listPrompts)
	r.POST(RoutePrompts, s.auth, s.createPrompt)
	r.DELETE(RoutePrompt, s.auth, s.deletePrompt)

	r.POST(RouteVectorStores, s.auth, s.createVectorStore)
	r.DELETE(RouteVectorStore, s.auth, s.deleteVectorStore)
	r.POST(RouteVectorEmbeddings, s.auth, s.addEmbedding)

	return r
}

// -------------------------------------------------------------------
// Middleware
// -------------------------------------------------------------------

func (s *Server) journal(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.Path)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) faults(c *gin.Context) {
	s.mu.Lock()
	status, ok := s.forced[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(status, gin.H{
			"success": false,
			"message": fmt.Sprintf("forced status %d", status),
			"error":   "FORCED_FAILURE",
		})
		return
	}
	c.Next()
}

// auth повторяет коды ошибок middleware настоящего сервера.
func (s *Server) auth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		authError(c, "Access token is required", "MISSING_TOKEN")
		return
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		authError(c, "Invalid token format", "INVALID_TOKEN_FORMAT")
		return
	}
	s.mu.Lock()
	email, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		authError(c, "Token verification failed", "TOKEN_VERIFICATION_FAILED")
		return
	}
	c.Set("email", email)
	c.Next()
}

func authError(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"error":   code,
	})
}

// -------------------------------------------------------------------
// Handlers
// -------------------------------------------------------------------

func (s *Server) health(c *gin.Context) {
	s.mu.Lock()
	healthy := s.healthy
	s.mu.Unlock()
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "AI Hub is unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "AI Hub is running"})
}

func (s *Server) register(c *gin.Context) {
	var req hub.Registration
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		validationError(c, "email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "User with this email already exists",
			"error":   "USER_ALREADY_EXISTS",
		})
		return
	}
	acc := &account{
		user: hub.User{
			ID:        uuid.NewString(),
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      "user",
		},
		password: req.Password,
	}
	s.accounts[req.Email] = acc
	c.JSON(http.StatusCreated, s.sessionBody("User registered successfully", acc))
}

func (s *Server) login(c *gin.Context) {
	var req hub.Credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		validationError(c, "email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok || acc.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid email or password",
			"error":   "INVALID_CREDENTIALS",
		})
		return
	}
	c.JSON(http.StatusOK, s.sessionBody("Login successful", acc))
}

// sessionBody выдаёт новый токен. Вызывается под s.mu.
func (s *Server) sessionBody(message string, acc *account) gin.H {
	token := "fake-" + uuid.NewString()
	s.tokens[token] = acc.user.Email
	return gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"user": acc.user,
			"tokens": gin.H{
				"accessToken":  token,
				"refreshToken": "refresh-" + token,
				"expiresIn":    "7d",
			},
		},
	}
}

func (s *Server) currentUser(c *gin.Context) hub.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[c.GetString("email")].user
}

func (s *Server) profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": s.currentUser(c)}})
}

func (s *Server) verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token is valid",
		"data": gin.H{
			"user":      s.currentUser(c),
			"tokenInfo": gin.H{"valid": true},
		},
	})
}

func (s *Server) listPrompts(c *gin.Context) {
	s.mu.Lock()
	prompts := append([]hub.Prompt{}, s.prompts...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"prompts": prompts}})
}

// createPrompt отвечает голым объектом без конверта, как настоящий сервер.
func (s *Server) createPrompt(c *gin.Context) {
	var p hub.Prompt
	if err := c.ShouldBindJSON(&p); err != nil || p.Title == "" || p.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title and content are required"})
		return
	}
	p.ID = uuid.NewString()
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, p)
}

func (s *Server) deletePrompt(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.prompts {
		if p.ID == id {
			s.prompts = append(s.prompts[:i], s.prompts[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "Prompt deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Prompt not found"})
}

func (s *Server) createVectorStore(c *gin.Context) {
	var vs hub.VectorStore
	if err := c.ShouldBindJSON(&vs); err != nil || vs.Name == "" || vs.VectorDimension <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and positive vectorDimension are required"})
		return
	}
	vs.ID = uuid.NewString()
	s.mu.Lock()
	s.stores[vs.ID] = &store{VectorStore: vs}
	s.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": vs})
}

func (s *Server) deleteVectorStore(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Vector store not found"})
		return
	}
	delete(s.stores, id)
	c.JSON(http.StatusOK, gin.H{"message": "Vector store deleted"})
}

func (s *Server) addEmbedding(c *gin.Context) {
	var e hub.Embedding
	if err := c.ShouldBindJSON(&e); err != nil || e.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "text and vector are required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Vector store not found"})
		return
	}
	if len(e.Vector) != st.VectorDimension {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": fmt.Sprintf("Vector dimension mismatch: expected %d, got %d", st.VectorDimension, len(e.Vector)),
		})
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	st.embeddings = append(st.embeddings, e)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": st.VectorStore})
}

func validationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
		"error":   "VALIDATION_ERROR",
	})
}
