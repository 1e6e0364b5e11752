package smoke

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

// Коды ошибок построения вектора.
const (
	// ErrEmbedDimension — длина вектора не совпадает с размерностью хранилища
	ErrEmbedDimension = "EMBED.DIMENSION"
	// ErrEmbedFailed — источник эмбеддингов вернул ошибку
	ErrEmbedFailed = "EMBED.FAILED"
)

// Embedder строит вектор для embedding шага.
type Embedder interface {
	// Embed возвращает вектор длины dimension для text.
	// model — модель векторного хранилища из сценария.
	Embed(ctx context.Context, text string, dimension int, model string) ([]float64, error)
	// Source — имя источника для отчёта и логов.
	Source() string
}

// ConstantEmbedder заполняет вектор постоянным значением.
type ConstantEmbedder struct {
	Value float64
}

// NewConstantEmbedder создаёт ConstantEmbedder со значением-заглушкой 0.1.
func NewConstantEmbedder() *ConstantEmbedder {
	return &ConstantEmbedder{Value: constants.PlaceholderEmbeddingValue}
}

func (e *ConstantEmbedder) Embed(_ context.Context, _ string, dimension int, _ string) ([]float64, error) {
	if dimension <= 0 {
		return nil, apperrors.NewAppError(ErrEmbedDimension,
			fmt.Sprintf("некорректная размерность %d", dimension), nil)
	}
	vec := make([]float64, dimension)
	for i := range vec {
		vec[i] = e.Value
	}
	return vec, nil
}

func (e *ConstantEmbedder) Source() string { return "constant" }

// OpenAIEmbedder получает настоящий эмбеддинг через OpenAI-совместимый API.
type OpenAIEmbedder struct {
	client openai.Client
	// model переопределяет модель хранилища, если задан.
	model string
}

// NewOpenAIEmbedder создаёт OpenAIEmbedder. baseURL пустой — api.openai.com.
func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, dimension int, model string) ([]float64, error) {
	if e.model != "" {
		model = e.model
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, apperrors.NewAppError(ErrEmbedFailed, "OpenAI embeddings: запрос не выполнен", err)
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.NewAppError(ErrEmbedFailed, "OpenAI embeddings: пустой ответ", nil)
	}
	vec := resp.Data[0].Embedding
	if len(vec) != dimension {
		return nil, apperrors.NewAppError(ErrEmbedDimension,
			fmt.Sprintf("модель %s вернула вектор длины %d, хранилище ожидает %d", model, len(vec), dimension), nil)
	}
	return vec, nil
}

func (e *OpenAIEmbedder) Source() string { return "openai" }
