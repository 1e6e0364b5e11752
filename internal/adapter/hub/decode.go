package hub

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errNoPrompts = errors.New("в ответе нет списка промптов")

// unwrapData возвращает содержимое поля data, если оно есть, иначе весь документ.
// Сервер отдаёт часть ответов в конверте {success, data}, часть без него.
func unwrapData(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, errors.New("ответ не является JSON")
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		if len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
			return envelope.Data, nil
		}
	}
	return trimmed, nil
}

// decodePromptList принимает {data:{prompts:[]}}, {data:[]}, {prompts:[]} и голый массив.
func decodePromptList(body []byte) ([]Prompt, error) {
	payload, err := unwrapData(body)
	if err != nil {
		return nil, err
	}
	switch {
	case len(payload) > 0 && payload[0] == '[':
		var prompts []Prompt
		if err := json.Unmarshal(payload, &prompts); err != nil {
			return nil, err
		}
		return prompts, nil
	case len(payload) > 0 && payload[0] == '{':
		var wrapped struct {
			Prompts []Prompt `json:"prompts"`
		}
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return nil, err
		}
		if wrapped.Prompts == nil {
			return nil, errNoPrompts
		}
		return wrapped.Prompts, nil
	default:
		return nil, errNoPrompts
	}
}

// authPayload — полезная нагрузка ответа register/login.
type authPayload struct {
	User   User `json:"user"`
	Tokens struct {
		AccessToken string `json:"accessToken"`
	} `json:"tokens"`
}

// userPayload — полезная нагрузка ответа profile/verify.
type userPayload struct {
	User User `json:"user"`
}

// errorEnvelope — тело ответа с ошибкой.
// error бывает строкой-кодом (MISSING_TOKEN) или объектом {code, message}.
type errorEnvelope struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// serverError извлекает код и сообщение сервера из тела ошибки.
func (c *contracts) serverError(body []byte) (code, message string) {
	if len(body) == 0 || validate(c.errorEnvelope, body) != nil {
		return "", ""
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ""
	}
	message = env.Message
	if len(env.Error) == 0 {
		return "", message
	}
	if env.Error[0] == '"' {
		_ = json.Unmarshal(env.Error, &code)
		return code, message
	}
	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil {
		code = obj.Code
		if message == "" {
			message = obj.Message
		}
	}
	return code, message
}
