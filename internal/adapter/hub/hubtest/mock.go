package hubtest

import (
	"context"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub"
)

// Compile-time проверки реализации интерфейсов
var (
	_ hub.Client             = (*MockClient)(nil)
	_ hub.HealthChecker      = (*MockClient)(nil)
	_ hub.Authenticator      = (*MockClient)(nil)
	_ hub.PromptManager      = (*MockClient)(nil)
	_ hub.VectorStoreManager = (*MockClient)(nil)
)

// TestToken — токен, который MockClient выдаёт по умолчанию.
const TestToken = "test-access-token"

// MockClient — мок-реализация hub.Client для тестирования.
type MockClient struct {
	// HealthChecker
	HealthFunc func(ctx context.Context) (*hub.Health, error)

	// Authenticator
	RegisterFunc func(ctx context.Context, reg hub.Registration) (*hub.Session, error)
	LoginFunc    func(ctx context.Context, creds hub.Credentials) (*hub.Session, error)
	ProfileFunc  func(ctx context.Context, token string) (*hub.User, error)
	VerifyFunc   func(ctx context.Context, token string) (*hub.User, error)

	// PromptManager
	CreatePromptFunc func(ctx context.Context, token string, p hub.Prompt) (*hub.Prompt, error)
	ListPromptsFunc  func(ctx context.Context) ([]hub.Prompt, error)
	DeletePromptFunc func(ctx context.Context, token, id string) error

	// VectorStoreManager
	CreateVectorStoreFunc func(ctx context.Context, token string, vs hub.VectorStore) (*hub.VectorStore, error)
	AddEmbeddingFunc      func(ctx context.Context, token, storeID string, e hub.Embedding) (*hub.EmbeddingResult, error)
	DeleteVectorStoreFunc func(ctx context.Context, token, id string) error
}

// NewMockClient создаёт MockClient с ответами по умолчанию.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// NewMockClientUnreachable создаёт MockClient, у которого health падает с HUB.UNREACHABLE.
func NewMockClientUnreachable() *MockClient {
	return &MockClient{
		HealthFunc: func(context.Context) (*hub.Health, error) {
			return nil, hub.NewHubError(hub.ErrHubUnreachable, "GET /api/health: сервер недоступен", nil)
		},
	}
}

func (m *MockClient) Health(ctx context.Context) (*hub.Health, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return &hub.Health{Status: "ok", Message: "AI Hub is running"}, nil
}

func (m *MockClient) Register(ctx context.Context, reg hub.Registration) (*hub.Session, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	return &hub.Session{
		Token:      TestToken,
		User:       UserData(reg.Email),
		StatusCode: 201,
	}, nil
}

func (m *MockClient) Login(ctx context.Context, creds hub.Credentials) (*hub.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return &hub.Session{
		Token:      TestToken,
		User:       UserData(creds.Email),
		StatusCode: 200,
	}, nil
}

// Profile по умолчанию отклоняет пустой токен и любой токен кроме TestToken.
func (m *MockClient) Profile(ctx context.Context, token string) (*hub.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, token)
	}
	return checkToken(token)
}

// Verify ведёт себя как Profile.
func (m *MockClient) Verify(ctx context.Context, token string) (*hub.User, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return checkToken(token)
}

func (m *MockClient) CreatePrompt(ctx context.Context, token string, p hub.Prompt) (*hub.Prompt, error) {
	if m.CreatePromptFunc != nil {
		return m.CreatePromptFunc(ctx, token, p)
	}
	p.ID = "prompt-" + p.Title
	return &p, nil
}

func (m *MockClient) ListPrompts(ctx context.Context) ([]hub.Prompt, error) {
	if m.ListPromptsFunc != nil {
		return m.ListPromptsFunc(ctx)
	}
	return []hub.Prompt{}, nil
}

func (m *MockClient) DeletePrompt(ctx context.Context, token, id string) error {
	if m.DeletePromptFunc != nil {
		return m.DeletePromptFunc(ctx, token, id)
	}
	return nil
}

func (m *MockClient) CreateVectorStore(ctx context.Context, token string, vs hub.VectorStore) (*hub.VectorStore, error) {
	if m.CreateVectorStoreFunc != nil {
		return m.CreateVectorStoreFunc(ctx, token, vs)
	}
	vs.ID = "store-1"
	return &vs, nil
}

func (m *MockClient) AddEmbedding(ctx context.Context, token, storeID string, e hub.Embedding) (*hub.EmbeddingResult, error) {
	if m.AddEmbeddingFunc != nil {
		return m.AddEmbeddingFunc(ctx, token, storeID, e)
	}
	return &hub.EmbeddingResult{StatusCode: 201}, nil
}

func (m *MockClient) DeleteVectorStore(ctx context.Context, token, id string) error {
	if m.DeleteVectorStoreFunc != nil {
		return m.DeleteVectorStoreFunc(ctx, token, id)
	}
	return nil
}

// UserData возвращает тестового пользователя.
func UserData(email string) hub.User {
	return hub.User{ID: "user-1", Email: email, FirstName: "Test", LastName: "User", Role: "user"}
}

func checkToken(token string) (*hub.User, error) {
	if token != TestToken {
		return nil, &hub.HubError{
			Code:       hub.ErrAuthRejected,
			Message:    "HTTP 401",
			StatusCode: 401,
			ServerCode: "TOKEN_VERIFICATION_FAILED",
		}
	}
	u := UserData("test@example.com")
	return &u, nil
}
