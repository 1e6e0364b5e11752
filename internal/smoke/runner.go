package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/metrics"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/pkg/progress"
	"github.com/Kargones/aihub-smoke/internal/pkg/tracing"
)

// Имена шагов прогона.
const (
	StepHealth            = "health"
	StepAuth              = "auth"
	StepCreatePrompt      = "create_prompt"
	StepListPrompts       = "list_prompts"
	StepCreateVectorStore = "create_vector_store"
	StepAddEmbedding      = "add_embedding"
	StepProfile           = "profile"
	StepVerify            = "verify"
	StepNegativeProfile   = "negative_profile"
	StepNegativeVerify    = "negative_verify"
	StepDeletePrompt      = "delete_prompt"
	StepDeleteVectorStore = "delete_vector_store"
)

// Коды ошибок шагов, не связанные с транспортом.
const (
	// ErrStepFailed — шаг провален без структурированного кода
	ErrStepFailed = "SMOKE.STEP_FAILED"
	// ErrTitlesMissing — созданные заголовки не найдены в списке промптов
	ErrTitlesMissing = "SMOKE.TITLES_MISSING"
	// ErrAuthNotRejected — сервер принял недействительный токен
	ErrAuthNotRejected = "AUTH.NOT_REJECTED"
)

// Причины пропуска шагов.
const (
	skipHubDown    = "AI Hub недоступен"
	skipNoToken    = "нет токена"
	skipNoStore    = "хранилище не создано"
	skipNotCreated = "ресурс не создан"
	skipCancelled  = "прогон прерван"
)

const (
	detailMissingToken   = "missing token"
	detailMalformedToken = "malformed token"
	// malformedToken — строка, которая не является JWT.
	malformedToken = "not-a-valid-jwt"
)

// Options — параметры прогона из конфигурации, переопределяющие сценарий.
type Options struct {
	// Strict — любой проваленный шаг даёт exit code 8.
	Strict bool
	// Cleanup — удалить созданные промпты и хранилище в конце прогона.
	Cleanup bool
	// FreshUser — добавить uuid суффикс к email.
	FreshUser bool
	// NegativeAuth — включить негативные проверки токена.
	NegativeAuth bool
	// Email и Password заменяют учётные данные сценария, если заданы.
	Email    string
	Password string
}

// Runner выполняет сценарий против AI Hub шаг за шагом.
type Runner struct {
	client   hub.Client
	embedder Embedder
	metrics  metrics.Collector
	logger   logging.Logger
	progress progress.Progress
	opts     Options
}

// NewRunner создаёт Runner. nil зависимости заменяются no-op реализациями,
// nil embedder заменяется ConstantEmbedder.
func NewRunner(client hub.Client, embedder Embedder, collector metrics.Collector,
	logger logging.Logger, prog progress.Progress, opts Options) *Runner {
	if embedder == nil {
		embedder = NewConstantEmbedder()
	}
	if collector == nil {
		collector = metrics.NewNopCollector()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if prog == nil {
		prog = progress.NewNoOp()
	}
	return &Runner{
		client:   client,
		embedder: embedder,
		metrics:  collector,
		logger:   logger,
		progress: prog,
		opts:     opts,
	}
}

// planEntry — один запланированный HTTP шаг.
type planEntry struct {
	name   string
	detail string
	method string
	path   string
	auth   bool
	params map[string]any
}

// prepare применяет Options к копии сценария.
func (r *Runner) prepare(scn *Scenario) *Scenario {
	out := *scn
	if r.opts.Email != "" {
		out.User.Email = r.opts.Email
	}
	if r.opts.Password != "" {
		out.User.Password = r.opts.Password
	}
	out.FreshUser = out.FreshUser || r.opts.FreshUser
	if out.FreshUser {
		out.User.Email = freshEmail(out.User.Email)
	}
	out.NegativeAuth = out.NegativeAuth || r.opts.NegativeAuth
	return &out
}

// freshEmail добавляет случайный суффикс к локальной части адреса.
func freshEmail(email string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email + "-" + suffix
	}
	return local + "-" + suffix + "@" + domain
}

// plan строит упорядоченный список шагов. Порядок фиксирован:
// health, auth, промпты, список, хранилище, интроспекция, негативные проверки, очистка.
func (r *Runner) plan(scn *Scenario) []planEntry {
	steps := []planEntry{
		{name: StepHealth, method: http.MethodGet, path: "/api/health"},
		{name: StepAuth, method: http.MethodPost, path: "/api/auth/register",
			params: map[string]any{
				"email":    scn.User.Email,
				"password": scn.User.Password,
				"fallback": "POST /api/auth/login при 409",
			}},
	}

	for _, p := range scn.Prompts {
		steps = append(steps, planEntry{
			name: StepCreatePrompt, detail: p.Title, method: http.MethodPost, path: "/api/prompts", auth: true,
			params: map[string]any{"category": p.Category, "tags": strings.Join(p.Tags, ",")},
		})
	}

	listParams := map[string]any{}
	if scn.Listing.VerifyTitles && len(scn.Prompts) > 0 {
		listParams["verify_titles"] = len(scn.Prompts)
	}
	steps = append(steps, planEntry{name: StepListPrompts, method: http.MethodGet, path: "/api/prompts", params: listParams})

	if vs := scn.VectorStore; vs != nil {
		steps = append(steps, planEntry{
			name: StepCreateVectorStore, detail: vs.Name, method: http.MethodPost, path: "/api/vectorstores", auth: true,
			params: map[string]any{"namespace": vs.Namespace, "vector_dimension": vs.Dimension, "model": vs.Model},
		})
		if vs.Embedding != nil {
			steps = append(steps, planEntry{
				name: StepAddEmbedding, method: http.MethodPost, path: "/api/vectorstores/{id}/embeddings", auth: true,
				params: map[string]any{"dimension": vs.Dimension, "source": r.embedder.Source()},
			})
		}
	}

	if scn.Introspection {
		steps = append(steps,
			planEntry{name: StepProfile, method: http.MethodGet, path: "/api/auth/profile", auth: true},
			planEntry{name: StepVerify, method: http.MethodGet, path: "/api/auth/verify", auth: true},
		)
	}

	if scn.NegativeAuth {
		for _, probe := range []struct{ name, path string }{
			{StepNegativeProfile, "/api/auth/profile"},
			{StepNegativeVerify, "/api/auth/verify"},
		} {
			for _, detail := range []string{detailMissingToken, detailMalformedToken} {
				steps = append(steps, planEntry{
					name: probe.name, detail: detail, method: http.MethodGet, path: probe.path,
					params: map[string]any{"expect": "401/403"},
				})
			}
		}
	}

	if r.opts.Cleanup {
		for _, p := range scn.Prompts {
			steps = append(steps, planEntry{
				name: StepDeletePrompt, detail: p.Title, method: http.MethodDelete, path: "/api/prompts/{id}", auth: true,
			})
		}
		if vs := scn.VectorStore; vs != nil {
			steps = append(steps, planEntry{
				name: StepDeleteVectorStore, detail: vs.Name, method: http.MethodDelete, path: "/api/vectorstores/{id}", auth: true,
			})
		}
	}
	return steps
}

// Plan возвращает шаги прогона для dry-run без сетевых вызовов.
func (r *Runner) Plan(scn *Scenario) []output.PlanStep {
	entries := r.plan(r.prepare(scn))
	steps := make([]output.PlanStep, 0, len(entries))
	for i, e := range entries {
		op := e.name
		if e.detail != "" {
			op += " «" + e.detail + "»"
		}
		steps = append(steps, output.PlanStep{
			Order:      i + 1,
			Operation:  op,
			Method:     e.method,
			Path:       e.path,
			Auth:       e.auth,
			Parameters: e.params,
		})
	}
	return steps
}

// execution — изменяемое состояние одного прогона.
type execution struct {
	scn    *Scenario
	report *Report
	total  int

	token      string
	hubDown    bool
	promptIDs  []string
	created    []string
	storeID    string
	promptSeen int
	deleteSeen int
}

// Run выполняет сценарий и возвращает отчёт. Run не возвращает ошибку:
// исход прогона описывают Report.ExitCode и Report.Err.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) *Report {
	start := time.Now()
	scn := r.prepare(scenario)
	steps := r.plan(scn)

	ctx, span := tracing.StartRunSpan(ctx, scn.Name, len(steps))

	ex := &execution{
		scn: scn,
		report: &Report{
			Scenario:    scn.Name,
			BaseURL:     r.baseURL(),
			User:        scn.User.Email,
			Strict:      r.opts.Strict,
			Steps:       make([]StepResult, 0, len(steps)),
			PromptCount: -1,
		},
		total:     len(steps),
		promptIDs: make([]string, len(scn.Prompts)),
	}

	r.logger.Info("Запуск сценария",
		"scenario", scn.Name,
		"hub_url", ex.report.BaseURL,
		"steps", len(steps),
		"embedder", r.embedder.Source())
	r.progress.Start(scn.Name, len(steps))

	for i, e := range steps {
		index := i + 1
		switch {
		case ctx.Err() != nil:
			ex.report.Cancelled = true
			r.skip(ex, index, e, skipCancelled)
		case ex.hubDown:
			r.skip(ex, index, e, skipHubDown)
		case e.auth && ex.token == "":
			r.skip(ex, index, e, skipNoToken)
		default:
			r.dispatch(ctx, ex, index, e)
		}
	}

	r.progress.Finish()
	ex.report.DurationMs = time.Since(start).Milliseconds()
	ex.report.finalize()

	r.logger.Info("Сценарий завершён",
		"scenario", scn.Name,
		"passed", ex.report.Passed,
		"failed", ex.report.Failed,
		"skipped", ex.report.Skipped,
		"exit_code", ex.report.ExitCode,
		"duration_ms", ex.report.DurationMs)
	tracing.EndSpan(span, ex.report.Err())
	return ex.report
}

func (r *Runner) baseURL() string {
	if b, ok := r.client.(interface{ BaseURL() string }); ok {
		return b.BaseURL()
	}
	return ""
}

// dispatch выбирает реализацию шага по имени.
func (r *Runner) dispatch(ctx context.Context, ex *execution, index int, e planEntry) {
	switch e.name {
	case StepHealth:
		r.exec(ctx, ex, index, e, r.stepHealth)
	case StepAuth:
		r.exec(ctx, ex, index, e, r.stepAuth)
	case StepCreatePrompt:
		i := ex.promptSeen
		ex.promptSeen++
		r.exec(ctx, ex, index, e, func(ctx context.Context, ex *execution) (StepResult, error) {
			return r.stepCreatePrompt(ctx, ex, i)
		})
	case StepListPrompts:
		r.exec(ctx, ex, index, e, r.stepListPrompts)
	case StepCreateVectorStore:
		r.exec(ctx, ex, index, e, r.stepCreateVectorStore)
	case StepAddEmbedding:
		if ex.storeID == "" {
			r.skip(ex, index, e, skipNoStore)
			return
		}
		r.exec(ctx, ex, index, e, r.stepAddEmbedding)
	case StepProfile:
		r.exec(ctx, ex, index, e, func(ctx context.Context, ex *execution) (StepResult, error) {
			return r.introspect(ctx, r.client.Profile, ex.token)
		})
	case StepVerify:
		r.exec(ctx, ex, index, e, func(ctx context.Context, ex *execution) (StepResult, error) {
			return r.introspect(ctx, r.client.Verify, ex.token)
		})
	case StepNegativeProfile, StepNegativeVerify:
		call := r.client.Profile
		if e.name == StepNegativeVerify {
			call = r.client.Verify
		}
		token := ""
		if e.detail == detailMalformedToken {
			token = malformedToken
		}
		r.exec(ctx, ex, index, e, func(ctx context.Context, _ *execution) (StepResult, error) {
			return r.negativeProbe(ctx, call, token)
		})
	case StepDeletePrompt:
		i := ex.deleteSeen
		ex.deleteSeen++
		if ex.promptIDs[i] == "" {
			r.skip(ex, index, e, skipNotCreated)
			return
		}
		r.exec(ctx, ex, index, e, func(ctx context.Context, ex *execution) (StepResult, error) {
			if err := r.client.DeletePrompt(ctx, ex.token, ex.promptIDs[i]); err != nil {
				return StepResult{}, err
			}
			return StepResult{Message: "удалён " + ex.promptIDs[i]}, nil
		})
	case StepDeleteVectorStore:
		if ex.storeID == "" {
			r.skip(ex, index, e, skipNotCreated)
			return
		}
		r.exec(ctx, ex, index, e, func(ctx context.Context, ex *execution) (StepResult, error) {
			if err := r.client.DeleteVectorStore(ctx, ex.token, ex.storeID); err != nil {
				return StepResult{}, err
			}
			return StepResult{Message: "удалено " + ex.storeID}, nil
		})
	}
}

type stepFunc func(ctx context.Context, ex *execution) (StepResult, error)

// exec выполняет шаг: span, замер времени, метрики, прогресс и лог.
// fn заполняет HTTPStatus и Message при успехе. Ошибка fn превращается
// в проваленный StepResult с кодом ошибки.
func (r *Runner) exec(ctx context.Context, ex *execution, index int, e planEntry, fn stepFunc) {
	r.progress.StepStarted(index, e.name, e.detail)
	stepCtx, span := tracing.StartStepSpan(ctx, e.name, e.detail, e.method, e.path)

	started := time.Now()
	res, err := fn(stepCtx, ex)
	elapsed := time.Since(started)

	switch {
	case err != nil && ctx.Err() != nil:
		// Запрос оборван отменой контекста.
		ex.report.Cancelled = true
		res = StepResult{Status: StatusSkip, ErrorCode: hub.ErrHubCancelled, Message: skipCancelled}
	case err != nil:
		res = failedResult(err)
	case res.Status == "":
		res.Status = StatusPass
	}
	res.Name = e.name
	res.Detail = e.detail
	res.DurationMs = elapsed.Milliseconds()
	if res.Status == StatusFail && e.name == StepHealth {
		res.Fatal = true
	}

	tracing.EndStepSpan(span, string(res.Status), res.HTTPStatus, res.ErrorCode, err)

	r.record(ex, index, res, elapsed)
}

// skip записывает пропущенный шаг.
func (r *Runner) skip(ex *execution, index int, e planEntry, reason string) {
	r.record(ex, index, StepResult{
		Name:    e.name,
		Detail:  e.detail,
		Status:  StatusSkip,
		Message: reason,
	}, 0)
}

func (r *Runner) record(ex *execution, index int, res StepResult, elapsed time.Duration) {
	ex.report.add(res)
	r.metrics.RecordStep(ex.scn.Name, res.Name, string(res.Status), elapsed)
	r.progress.StepFinished(index, progress.Step{
		Name:       res.Name,
		Detail:     res.Detail,
		Status:     string(res.Status),
		HTTPStatus: res.HTTPStatus,
		Code:       res.ErrorCode,
		Message:    res.Message,
		Duration:   elapsed,
	})

	args := []any{
		"step", res.Name,
		"status", string(res.Status),
		"duration_ms", res.DurationMs,
	}
	if res.Detail != "" {
		args = append(args, "detail", res.Detail)
	}
	if res.HTTPStatus != 0 {
		args = append(args, "http_status", res.HTTPStatus)
	}
	if res.ErrorCode != "" {
		args = append(args, "error_code", res.ErrorCode)
	}
	switch res.Status {
	case StatusFail:
		r.logger.Warn("Шаг провален: "+res.Message, args...)
	case StatusSkip:
		r.logger.Debug("Шаг пропущен: "+res.Message, args...)
	default:
		r.logger.Info("Шаг выполнен", args...)
	}
}

// failedResult строит проваленный StepResult из ошибки клиента или шага.
func failedResult(err error) StepResult {
	res := StepResult{
		Status:     StatusFail,
		HTTPStatus: hub.StatusOf(err),
		ErrorCode:  apperrors.CodeOf(err),
		Message:    err.Error(),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		res.Message = appErr.Message
	}
	if res.ErrorCode == "" {
		res.ErrorCode = ErrStepFailed
	}
	return res
}

func (r *Runner) stepHealth(ctx context.Context, ex *execution) (StepResult, error) {
	h, err := r.client.Health(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return StepResult{}, err
		}
		ex.hubDown = true
		if hub.IsUnreachable(err) {
			r.logger.Error("AI Hub недоступен, прогон остановлен",
				"hub_url", ex.report.BaseURL, "error", err.Error())
		}
		return StepResult{}, err
	}
	msg := h.Status
	if h.Message != "" {
		msg = strings.TrimSpace(msg + " " + h.Message)
	}
	return StepResult{HTTPStatus: http.StatusOK, Message: msg}, nil
}

// stepAuth регистрирует пользователя, при 409 выполняет вход с теми же данными.
func (r *Runner) stepAuth(ctx context.Context, ex *execution) (StepResult, error) {
	u := ex.scn.User
	sess, err := r.client.Register(ctx, hub.Registration{
		Email:     u.Email,
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
	msg := "пользователь зарегистрирован"
	if hub.IsConflict(err) {
		r.logger.Info("Пользователь уже существует, выполняется вход", "email", u.Email)
		sess, err = r.client.Login(ctx, hub.Credentials{Email: u.Email, Password: u.Password})
		msg = "пользователь существует, выполнен вход"
	}
	if err != nil {
		return StepResult{}, err
	}
	if sess.Token == "" {
		return StepResult{}, hub.NewHubErrorWithStatus(hub.ErrAuthNoToken,
			"в ответе нет токена доступа", sess.StatusCode, nil)
	}
	ex.token = sess.Token
	if sess.User.Email != "" {
		ex.report.User = sess.User.Email
	}
	return StepResult{HTTPStatus: sess.StatusCode, Message: msg}, nil
}

func (r *Runner) stepCreatePrompt(ctx context.Context, ex *execution, i int) (StepResult, error) {
	ps := ex.scn.Prompts[i]
	p, err := r.client.CreatePrompt(ctx, ex.token, hub.Prompt{
		Title:    ps.Title,
		Content:  ps.Content,
		Category: ps.Category,
		Tags:     ps.Tags,
		Model:    ps.Model,
	})
	if err != nil {
		return StepResult{}, err
	}
	ex.promptIDs[i] = p.ID
	ex.created = append(ex.created, ps.Title)
	ex.report.CreatedPrompts = append(ex.report.CreatedPrompts, p.ID)
	return StepResult{HTTPStatus: http.StatusCreated, Message: "id " + p.ID}, nil
}

// stepListPrompts читает список без авторизации. С verify_titles проверяет,
// что все успешно созданные заголовки присутствуют.
func (r *Runner) stepListPrompts(ctx context.Context, ex *execution) (StepResult, error) {
	prompts, err := r.client.ListPrompts(ctx)
	if err != nil {
		return StepResult{}, err
	}
	titles := make([]string, 0, len(prompts))
	for _, p := range prompts {
		titles = append(titles, p.Title)
	}

	ex.report.PromptCount = len(prompts)
	shown := titles
	if n := ex.scn.Listing.ShowTitles; n > 0 && n < len(shown) {
		shown = shown[:n]
	}
	ex.report.PromptTitles = shown

	res := StepResult{HTTPStatus: http.StatusOK, Message: fmt.Sprintf("%d промптов", len(prompts))}
	if ex.scn.Listing.VerifyTitles {
		if missing := missingTitles(ex.created, titles); len(missing) > 0 {
			return StepResult{}, apperrors.NewAppError(ErrTitlesMissing,
				fmt.Sprintf("в списке нет созданных промптов: %s", strings.Join(missing, ", ")), nil)
		}
		res.Message += fmt.Sprintf(", найдены все созданные (%d)", len(ex.created))
	}
	return res, nil
}

func (r *Runner) stepCreateVectorStore(ctx context.Context, ex *execution) (StepResult, error) {
	vss := ex.scn.VectorStore
	vs, err := r.client.CreateVectorStore(ctx, ex.token, hub.VectorStore{
		Name:            vss.Name,
		Description:     vss.Description,
		Namespace:       vss.Namespace,
		VectorDimension: vss.Dimension,
		Model:           vss.Model,
	})
	if err != nil {
		return StepResult{}, err
	}
	ex.storeID = vs.ID
	ex.report.VectorStoreID = vs.ID
	return StepResult{HTTPStatus: http.StatusCreated, Message: "id " + vs.ID}, nil
}

func (r *Runner) stepAddEmbedding(ctx context.Context, ex *execution) (StepResult, error) {
	vss := ex.scn.VectorStore
	vec, err := r.embedder.Embed(ctx, vss.Embedding.Text, vss.Dimension, vss.Model)
	if err != nil {
		return StepResult{}, err
	}
	res, err := r.client.AddEmbedding(ctx, ex.token, ex.storeID, hub.Embedding{
		Text:     vss.Embedding.Text,
		Vector:   vec,
		Metadata: vss.Embedding.Metadata,
	})
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{
		HTTPStatus: res.StatusCode,
		Message:    fmt.Sprintf("вектор %d (%s)", len(vec), r.embedder.Source()),
	}, nil
}

type userCall func(ctx context.Context, token string) (*hub.User, error)

func (r *Runner) introspect(ctx context.Context, call userCall, token string) (StepResult, error) {
	u, err := call(ctx, token)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{HTTPStatus: http.StatusOK, Message: u.Email}, nil
}

// negativeProbe проходит, только если сервер отклонил запрос с 401/403.
func (r *Runner) negativeProbe(ctx context.Context, call userCall, token string) (StepResult, error) {
	_, err := call(ctx, token)
	switch {
	case err == nil:
		return StepResult{}, hub.NewHubErrorWithStatus(ErrAuthNotRejected,
			"сервер принял запрос с недействительным токеном", http.StatusOK, nil)
	case hub.IsAuthRejected(err):
		res := StepResult{
			HTTPStatus: hub.StatusOf(err),
			ErrorCode:  hub.ErrAuthRejected,
			Message:    "запрос отклонён",
		}
		var hubErr *hub.HubError
		if errors.As(err, &hubErr) && hubErr.ServerCode != "" {
			res.Message += " (" + hubErr.ServerCode + ")"
		}
		return res, nil
	default:
		return StepResult{}, err
	}
}
