package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/urlutil"
)

// Compile-time проверка реализации интерфейса.
var _ Client = (*HTTPClient)(nil)

// maxBodySize ограничивает чтение тела ответа.
const maxBodySize = 10 << 20

// Значения по умолчанию.
const (
	DefaultHealthTimeout  = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Options — параметры HTTPClient.
type Options struct {
	// BaseURL — адрес AI Hub, например http://localhost:3000.
	BaseURL string
	// HealthTimeout — таймаут GET /api/health.
	HealthTimeout time.Duration
	// RequestTimeout — таймаут остальных запросов.
	RequestTimeout time.Duration
	// HTTPClient — транспорт. nil — новый http.Client без собственного таймаута,
	// таймауты задаются через context.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// HTTPClient реализует Client поверх net/http.
type HTTPClient struct {
	baseURL        string
	healthTimeout  time.Duration
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         logging.Logger
	contracts      *contracts
}

// NewClient создаёт HTTPClient. Ошибка возможна при невалидном BaseURL.
func NewClient(opts Options) (*HTTPClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, NewHubError(ErrHubUnreachable, "некорректный адрес AI Hub", err)
	}
	c, err := loadContracts()
	if err != nil {
		return nil, fmt.Errorf("компиляция схем контрактов AI Hub: %w", err)
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &HTTPClient{
		baseURL:        opts.BaseURL,
		healthTimeout:  opts.HealthTimeout,
		requestTimeout: opts.RequestTimeout,
		httpClient:     opts.HTTPClient,
		logger:         opts.Logger,
		contracts:      c,
	}, nil
}

// BaseURL возвращает адрес AI Hub без учётных данных и query.
func (c *HTTPClient) BaseURL() string {
	return urlutil.Redact(c.baseURL)
}

// response — прочитанный HTTP ответ.
type response struct {
	status int
	body   []byte
}

// -------------------------------------------------------------------
// HealthChecker
// -------------------------------------------------------------------

func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	resp, err := c.do(ctx, c.healthTimeout, http.MethodGet, "/api/health", "", nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, c.statusError("health", resp, http.StatusOK)
	}
	if err := validate(c.contracts.health, resp.body); err != nil {
		return nil, c.contractError("health", resp, err)
	}
	var h Health
	if err := json.Unmarshal(resp.body, &h); err != nil {
		return nil, NewHubErrorWithStatus(ErrHubDecode, "health: некорректный JSON", resp.status, err)
	}
	return &h, nil
}

// -------------------------------------------------------------------
// Authenticator
// -------------------------------------------------------------------

func (c *HTTPClient) Register(ctx context.Context, reg Registration) (*Session, error) {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodPost, "/api/auth/register", "", reg)
	if err != nil {
		return nil, err
	}
	switch resp.status {
	case http.StatusCreated:
		return c.decodeSession("register", resp)
	case http.StatusConflict:
		hubErr := c.statusError("register", resp, http.StatusCreated)
		hubErr.Code = ErrAuthConflict
		return nil, hubErr
	default:
		return nil, c.statusError("register", resp, http.StatusCreated)
	}
}

func (c *HTTPClient) Login(ctx context.Context, creds Credentials) (*Session, error) {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodPost, "/api/auth/login", "", creds)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, c.statusError("login", resp, http.StatusOK)
	}
	return c.decodeSession("login", resp)
}

func (c *HTTPClient) Profile(ctx context.Context, token string) (*User, error) {
	return c.getUser(ctx, "profile", "/api/auth/profile", token)
}

func (c *HTTPClient) Verify(ctx context.Context, token string) (*User, error) {
	return c.getUser(ctx, "verify", "/api/auth/verify", token)
}

func (c *HTTPClient) getUser(ctx context.Context, op, path, token string) (*User, error) {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, c.statusError(op, resp, http.StatusOK)
	}
	payload, err := unwrapData(resp.body)
	if err != nil {
		return nil, NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, err)
	}
	var up userPayload
	if err := json.Unmarshal(payload, &up); err != nil {
		return nil, NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, err)
	}
	return &up.User, nil
}

func (c *HTTPClient) decodeSession(op string, resp *response) (*Session, error) {
	if !json.Valid(resp.body) {
		return nil, NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, nil)
	}
	if err := validate(c.contracts.auth, resp.body); err != nil {
		return nil, NewHubErrorWithStatus(ErrAuthNoToken, op+": в ответе нет data.tokens.accessToken", resp.status, err)
	}
	payload, err := unwrapData(resp.body)
	if err != nil {
		return nil, NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, err)
	}
	var ap authPayload
	if err := json.Unmarshal(payload, &ap); err != nil {
		return nil, NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, err)
	}
	if ap.Tokens.AccessToken == "" {
		return nil, NewHubErrorWithStatus(ErrAuthNoToken, op+": пустой accessToken", resp.status, nil)
	}
	return &Session{Token: ap.Tokens.AccessToken, User: ap.User, StatusCode: resp.status}, nil
}

// -------------------------------------------------------------------
// PromptManager
// -------------------------------------------------------------------

func (c *HTTPClient) CreatePrompt(ctx context.Context, token string, p Prompt) (*Prompt, error) {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodPost, "/api/prompts", token, p)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusCreated {
		return nil, c.statusError("create prompt", resp, http.StatusCreated)
	}
	var created Prompt
	if err := c.decodeResource("create prompt", resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) ListPrompts(ctx context.Context) ([]Prompt, error) {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodGet, "/api/prompts", "", nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, c.statusError("list prompts", resp, http.StatusOK)
	}
	prompts, err := decodePromptList(resp.body)
	if err != nil {
		return nil, NewHubErrorWithStatus(ErrHubDecode, "list prompts: неожиданная форма ответа", resp.status, err)
	}
	return prompts, nil
}

func (c *HTTPClient) DeletePrompt(ctx context.Context, token, id string) error {
	return c.deleteResource(ctx, "delete prompt", "/api/prompts/"+url.PathEscape(id), token)
}

// -------------------------------------------------------------------
// VectorStoreManager
// -------------------------------------------------------------------

func (c *HTTPClient) CreateVectorStore(ctx context.Context, token string, vs VectorStore) (*VectorStore, error) {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodPost, "/api/vectorstores", token, vs)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusCreated {
		return nil, c.statusError("create vector store", resp, http.StatusCreated)
	}
	var created VectorStore
	if err := c.decodeResource("create vector store", resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) AddEmbedding(ctx context.Context, token, storeID string, e Embedding) (*EmbeddingResult, error) {
	path := "/api/vectorstores/" + url.PathEscape(storeID) + "/embeddings"
	resp, err := c.do(ctx, c.requestTimeout, http.MethodPost, path, token, e)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		return nil, c.statusError("add embedding", resp, http.StatusOK, http.StatusCreated)
	}
	return &EmbeddingResult{StatusCode: resp.status}, nil
}

func (c *HTTPClient) DeleteVectorStore(ctx context.Context, token, id string) error {
	return c.deleteResource(ctx, "delete vector store", "/api/vectorstores/"+url.PathEscape(id), token)
}

// -------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------

func (c *HTTPClient) deleteResource(ctx context.Context, op, path, token string) error {
	resp, err := c.do(ctx, c.requestTimeout, http.MethodDelete, path, token, nil)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK && resp.status != http.StatusNoContent {
		return c.statusError(op, resp, http.StatusOK, http.StatusNoContent)
	}
	return nil
}

// decodeResource разворачивает data и проверяет, что у ресурса есть _id.
func (c *HTTPClient) decodeResource(op string, resp *response, out any) error {
	payload, err := unwrapData(resp.body)
	if err != nil {
		return NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, err)
	}
	if err := validate(c.contracts.resource, payload); err != nil {
		return c.contractError(op, resp, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return NewHubErrorWithStatus(ErrHubDecode, op+": некорректный JSON", resp.status, err)
	}
	return nil
}

// do выполняет запрос с собственным таймаутом и читает тело ответа.
// Пустой token — запрос без заголовка Authorization.
func (c *HTTPClient) do(ctx context.Context, timeout time.Duration, method, path, token string, body any) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, NewHubError(ErrHubDecode, fmt.Sprintf("%s %s: ошибка кодирования запроса", method, path), err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlutil.Join(c.baseURL, path), reader)
	if err != nil {
		return nil, NewHubError(ErrHubUnreachable, fmt.Sprintf("%s %s: ошибка формирования запроса", method, path), err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("запрос к AI Hub не выполнен",
			"method", method, "path", path, "request_id", requestID, "error", err.Error())
		return nil, transportError(method, path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(method, path, err)
	}
	c.logger.Debug("ответ AI Hub",
		"method", method,
		"path", path,
		"status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)
	return &response{status: httpResp.StatusCode, body: data}, nil
}

// transportError классифицирует сетевую ошибку: отмена, таймаут или недоступность.
func transportError(method, path string, err error) *HubError {
	msg := fmt.Sprintf("%s %s", method, path)
	if errors.Is(err, context.Canceled) {
		return NewHubError(ErrHubCancelled, msg+": запрос прерван", err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewHubError(ErrHubTimeout, msg+": таймаут", err)
	}
	return NewHubError(ErrHubUnreachable, msg+": сервер недоступен", err)
}

// statusError строит ошибку для неожиданного HTTP статуса. 401/403 — AUTH.REJECTED.
func (c *HTTPClient) statusError(op string, resp *response, expected ...int) *HubError {
	code := ErrHubUnexpectedStatus
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		code = ErrAuthRejected
	}
	serverCode, serverMsg := c.contracts.serverError(resp.body)
	msg := fmt.Sprintf("%s: HTTP %d, ожидался %v", op, resp.status, expected)
	if serverMsg != "" {
		msg += ": " + serverMsg
	}
	return &HubError{
		Code:       code,
		Message:    msg,
		StatusCode: resp.status,
		ServerCode: serverCode,
	}
}

func (c *HTTPClient) contractError(op string, resp *response, err error) *HubError {
	if !json.Valid(resp.body) {
		return NewHubErrorWithStatus(ErrHubDecode, op+": ответ не является JSON", resp.status, err)
	}
	return NewHubErrorWithStatus(ErrHubContract, op+": ответ не соответствует контракту", resp.status, err)
}
