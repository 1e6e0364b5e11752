package command

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

var (
	// registry: имя команды → обработчик.
	registry = make(map[string]Handler)
	mu       sync.RWMutex
	// commandNamePattern — strict kebab-case, начинается с буквы.
	commandNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
)

// Register регистрирует обработчик команды в глобальном реестре.
//
// Паникует если h == nil, имя пустое, имя не в kebab-case
// или команда с таким именем уже зарегистрирована.
func Register(h Handler) {
	if h == nil {
		panic("command: nil handler")
	}
	name := h.Name()
	if name == "" {
		panic("command: empty handler name")
	}
	if !commandNamePattern.MatchString(name) {
		panic("command: invalid handler name format (must be kebab-case): " + name)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic("command: duplicate handler registration for " + name)
	}
	registry[name] = h
}

// RegisterWithAlias регистрирует обработчик под основным именем и,
// если deprecated не пустой, DeprecatedBridge под старым именем.
//
//	command.RegisterWithAlias(&SmokeHandler{}, constants.ActTestMVP)
func RegisterWithAlias(h Handler, deprecated string) {
	if h == nil {
		panic("command: nil handler")
	}
	Register(h)

	if deprecated == "" {
		return
	}
	if deprecated == h.Name() {
		panic("command: deprecated name cannot be same as handler name: " + deprecated)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[deprecated]; exists {
		panic("command: duplicate handler registration for " + deprecated)
	}
	registry[deprecated] = &DeprecatedBridge{
		actual:     h,
		deprecated: deprecated,
		newName:    h.Name(),
	}
}

// TryRegister вызывает RegisterWithAlias и превращает панику регистрации в ошибку.
// Используется из RegisterCmd пакетов обработчиков.
func TryRegister(h Handler, deprecated string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("регистрация команды: %v", r)
		}
	}()
	RegisterWithAlias(h, deprecated)
	return nil
}

// Get возвращает обработчик команды по имени.
func Get(name string) (Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := registry[name]
	return h, ok
}

// Names возвращает отсортированный список имён всех команд, включая deprecated алиасы.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info описывает команду для help: основное имя, описание и deprecated алиас.
type Info struct {
	Name            string
	Description     string
	DeprecatedAlias string
}

// ListAllWithAliases возвращает команды без deprecated bridges,
// алиасы указываются в поле DeprecatedAlias основной команды.
// Результат отсортирован по имени.
func ListAllWithAliases() []Info {
	mu.RLock()
	defer mu.RUnlock()

	aliasMap := make(map[string]string)
	for _, h := range registry {
		if bridge, ok := h.(*DeprecatedBridge); ok {
			aliasMap[bridge.newName] = bridge.deprecated
		}
	}

	result := make([]Info, 0, len(registry)-len(aliasMap))
	for name, h := range registry {
		if _, isBridge := h.(*DeprecatedBridge); isBridge {
			continue
		}
		result = append(result, Info{
			Name:            name,
			Description:     h.Description(),
			DeprecatedAlias: aliasMap[name],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// clearRegistry очищает реестр. Только для тестов.
func clearRegistry() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Handler)
}
