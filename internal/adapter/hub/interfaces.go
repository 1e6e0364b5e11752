// Package hub определяет типизированный HTTP-клиент REST API AI Hub.
// Интерфейсы разделены по принципу ISP: HealthChecker, Authenticator,
// PromptManager, VectorStoreManager. Композитный Client объединяет их.
package hub

import "context"

// Health — ответ GET /api/health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Credentials — тело POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration — тело POST /api/auth/register.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// User — пользователь из ответов auth эндпоинтов.
type User struct {
	ID        string `json:"_id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Session — результат регистрации или входа.
type Session struct {
	// Token — bearer токен из data.tokens.accessToken. Живёт только в памяти.
	Token string
	User  User
	// StatusCode — 201 для регистрации, 200 для входа.
	StatusCode int
}

// Prompt — запись промпта.
type Prompt struct {
	ID       string   `json:"_id,omitempty"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Model    string   `json:"model,omitempty"`
}

// VectorStore — описание векторного хранилища.
type VectorStore struct {
	ID              string `json:"_id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Namespace       string `json:"namespace"`
	VectorDimension int    `json:"vectorDimension"`
	Model           string `json:"model"`
}

// Embedding — вектор с текстом и метаданными.
type Embedding struct {
	ID       string         `json:"id,omitempty"`
	Text     string         `json:"text"`
	Vector   []float64      `json:"vector"`
	Metadata map[string]any `json:"metadata"`
}

// EmbeddingResult — результат добавления эмбеддинга.
type EmbeddingResult struct {
	// StatusCode — 200 или 201, оба считаются успехом.
	StatusCode int
}

// HealthChecker проверяет доступность AI Hub.
type HealthChecker interface {
	// Health выполняет GET /api/health с коротким таймаутом.
	Health(ctx context.Context) (*Health, error)
}

// Authenticator управляет учётной записью и проверкой токена.
type Authenticator interface {
	// Register возвращает ошибку с кодом AUTH.CONFLICT при 409.
	Register(ctx context.Context, reg Registration) (*Session, error)
	Login(ctx context.Context, creds Credentials) (*Session, error)
	// Profile и Verify: пустой token означает запрос без Authorization.
	Profile(ctx context.Context, token string) (*User, error)
	Verify(ctx context.Context, token string) (*User, error)
}

// PromptManager работает с /api/prompts.
type PromptManager interface {
	CreatePrompt(ctx context.Context, token string, p Prompt) (*Prompt, error)
	// ListPrompts выполняется без авторизации.
	ListPrompts(ctx context.Context) ([]Prompt, error)
	DeletePrompt(ctx context.Context, token, id string) error
}

// VectorStoreManager работает с /api/vectorstores.
type VectorStoreManager interface {
	CreateVectorStore(ctx context.Context, token string, vs VectorStore) (*VectorStore, error)
	AddEmbedding(ctx context.Context, token, storeID string, e Embedding) (*EmbeddingResult, error)
	DeleteVectorStore(ctx context.Context, token, id string) error
}

// Client — композитный интерфейс клиента AI Hub.
type Client interface {
	HealthChecker
	Authenticator
	PromptManager
	VectorStoreManager
}
