package smoke

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

//go:embed scenarios/*.yaml
var scenarioFS embed.FS

// Scenario описывает один прогон: учётные данные и тела запросов.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	User        UserSpec `yaml:"user"`

	// FreshUser добавляет uuid суффикс к email, чтобы регистрация шла по пути 201.
	FreshUser bool `yaml:"fresh_user"`

	Prompts     []PromptSpec     `yaml:"prompts"`
	Listing     ListingSpec      `yaml:"listing"`
	VectorStore *VectorStoreSpec `yaml:"vector_store"`

	// Introspection включает GET /api/auth/profile и /api/auth/verify.
	Introspection bool `yaml:"introspection"`

	// NegativeAuth включает проверки profile/verify без токена и с испорченным токеном.
	NegativeAuth bool `yaml:"negative_auth"`
}

// UserSpec — учётные данные пользователя сценария.
type UserSpec struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// PromptSpec — тело POST /api/prompts.
type PromptSpec struct {
	Title    string   `yaml:"title"`
	Content  string   `yaml:"content"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Model    string   `yaml:"model"`
}

// ListingSpec управляет шагом GET /api/prompts.
type ListingSpec struct {
	// ShowTitles — сколько заголовков вывести в отчёт. 0 — все.
	ShowTitles int `yaml:"show_titles"`
	// VerifyTitles — проверять наличие созданных заголовков в списке.
	VerifyTitles bool `yaml:"verify_titles"`
}

// VectorStoreSpec — тело POST /api/vectorstores и необязательный эмбеддинг.
type VectorStoreSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Namespace   string         `yaml:"namespace"`
	Dimension   int            `yaml:"vector_dimension"`
	Model       string         `yaml:"model"`
	Embedding   *EmbeddingSpec `yaml:"embedding"`
}

// EmbeddingSpec — текст и метаданные эмбеддинга. Вектор строит Embedder.
type EmbeddingSpec struct {
	Text     string         `yaml:"text"`
	Metadata map[string]any `yaml:"metadata"`
}

// ErrScenarioUnknown — встроенного сценария с таким именем нет.
var ErrScenarioUnknown = errors.New("неизвестный сценарий")

// BuiltinScenarios возвращает имена встроенных сценариев.
func BuiltinScenarios() []string {
	entries, err := fs.ReadDir(scenarioFS, "scenarios")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadScenario загружает сценарий из файла path или встроенный сценарий name.
// Ошибки возвращаются как AppError с кодом SMOKE.SCENARIO_INVALID.
func LoadScenario(name, path string) (*Scenario, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrSmokeScenario,
				fmt.Sprintf("не удалось прочитать сценарий %s", path), err)
		}
	} else {
		data, err = scenarioFS.ReadFile("scenarios/" + name + ".yaml")
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrSmokeScenario,
				fmt.Sprintf("сценарий %q не найден, доступны: %s", name, strings.Join(BuiltinScenarios(), ", ")),
				ErrScenarioUnknown)
		}
	}

	scn, err := ParseScenario(data)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrSmokeScenario, "некорректный сценарий", err)
	}
	return scn, nil
}

// ParseScenario разбирает и проверяет YAML сценария. Неизвестные ключи считаются ошибкой.
func ParseScenario(data []byte) (*Scenario, error) {
	var scn Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scn); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return &scn, nil
}

// Validate проверяет обязательные поля.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name обязателен"))
	}
	if s.User.Email == "" || s.User.Password == "" {
		errs = append(errs, errors.New("user.email и user.password обязательны"))
	}
	titles := make(map[string]struct{}, len(s.Prompts))
	for i, p := range s.Prompts {
		if p.Title == "" || p.Content == "" {
			errs = append(errs, fmt.Errorf("prompts[%d]: title и content обязательны", i))
			continue
		}
		key := normalizeTitle(p.Title)
		if _, dup := titles[key]; dup {
			errs = append(errs, fmt.Errorf("prompts[%d]: заголовок %q повторяется", i, p.Title))
		}
		titles[key] = struct{}{}
	}
	if s.Listing.ShowTitles < 0 {
		errs = append(errs, errors.New("listing.show_titles не может быть отрицательным"))
	}
	if vs := s.VectorStore; vs != nil {
		if vs.Name == "" {
			errs = append(errs, errors.New("vector_store.name обязателен"))
		}
		if vs.Dimension <= 0 {
			errs = append(errs, errors.New("vector_store.vector_dimension должен быть положительным"))
		}
		if vs.Embedding != nil && vs.Embedding.Text == "" {
			errs = append(errs, errors.New("vector_store.embedding.text обязателен"))
		}
	}
	return errors.Join(errs...)
}
