package hub

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaBaseURL — базовый адрес ресурсов схем. Схемы добавляются в компилятор
// заранее, поэтому по сети ничего не загружается.
const schemaBaseURL = "https://aihub-smoke.local/schemas/"

// contracts — скомпилированные JSON Schema конвертов ответов AI Hub.
type contracts struct {
	health        *jsonschema.Schema
	auth          *jsonschema.Schema
	errorEnvelope *jsonschema.Schema
	resource      *jsonschema.Schema
}

// loadContracts компилирует встроенные схемы один раз на процесс.
var loadContracts = sync.OnceValues(compileContracts)

func compileContracts() (*contracts, error) {
	compiler := jsonschema.NewCompiler()

	compile := func(name string) (*jsonschema.Schema, error) {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("схема %s: %w", name, err)
		}
		if err := compiler.AddResource(schemaBaseURL+name, doc); err != nil {
			return nil, fmt.Errorf("схема %s: %w", name, err)
		}
		return compiler.Compile(schemaBaseURL + name)
	}

	var (
		c   contracts
		err error
	)
	if c.health, err = compile("health.json"); err != nil {
		return nil, err
	}
	if c.auth, err = compile("auth.json"); err != nil {
		return nil, err
	}
	if c.errorEnvelope, err = compile("error.json"); err != nil {
		return nil, err
	}
	if c.resource, err = compile("resource.json"); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate проверяет JSON документ схемой. Ошибка разбора JSON возвращается как есть.
func validate(schema *jsonschema.Schema, body []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}
