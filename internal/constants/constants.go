// Package constants содержит константы проекта aihub-smoke, сгруппированные по назначению.
package constants

// Константы сообщений приложения
const (
	// MsgAppExit - сообщение о завершении работы программы
	MsgAppExit = "Завершение работы программы"
	// MsgErrProcessing - сообщение об обработке ошибки
	MsgErrProcessing = "Обработка ошибки"
)

// Команды
const (
	// ActHubSmoke - полный прогон сценария против AI Hub
	ActHubSmoke = "hub-smoke"
	// ActHubDemo - быстрый демонстрационный прогон
	ActHubDemo = "hub-demo"
	// ActHubWatch - периодический прогон по cron-расписанию
	ActHubWatch = "hub-watch"
	// ActVersion - информация о версии
	ActVersion = "version"
	// ActHelp - список команд
	ActHelp = "help"
)

// Устаревшие имена команд (имена исходных скриптов)
const (
	// ActTestMVP - deprecated alias для hub-smoke
	ActTestMVP = "test-mvp"
	// ActDemoMVP - deprecated alias для hub-demo
	ActDemoMVP = "demo-mvp"
)

// Встроенные сценарии
const (
	// ScenarioMVP - полный сценарий
	ScenarioMVP = "mvp"
	// ScenarioDemo - короткий сценарий
	ScenarioDemo = "demo"
)

// Переменные окружения режимов выполнения
const (
	// EnvCommand - имя выполняемой команды
	EnvCommand = "BR_COMMAND"
	// EnvOutputFormat - формат вывода: text или json
	EnvOutputFormat = "BR_OUTPUT_FORMAT"
	// EnvDryRun - вывести план HTTP-вызовов без выполнения
	EnvDryRun = "BR_DRY_RUN"
	// EnvPlanOnly - только план операций
	EnvPlanOnly = "BR_PLAN_ONLY"
	// EnvVerbose - план перед реальным выполнением
	EnvVerbose = "BR_VERBOSE"
)

// Коды завершения процесса
const (
	// ExitOK - все шаги прошли
	ExitOK = 0
	// ExitFatal - провалено предусловие: AI Hub недоступен
	ExitFatal = 1
	// ExitUnknownCommand - неизвестная команда
	ExitUnknownCommand = 2
	// ExitConfig - ошибка загрузки конфигурации
	ExitConfig = 5
	// ExitStepsFailed - один или несколько шагов провалены
	ExitStepsFailed = 8
)

// Константы AI Hub
const (
	// DefaultHubURL - адрес AI Hub по умолчанию
	DefaultHubURL = "http://localhost:3000"
	// UserAgent - User-Agent HTTP-клиента
	UserAgent = "aihub-smoke/1.0"
	// PlaceholderEmbeddingValue - значение, которым заполняется вектор-заглушка
	PlaceholderEmbeddingValue = 0.1
)
