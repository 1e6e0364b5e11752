package logging

// Форматы вывода логов.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Уровни логирования.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Куда писать логи.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Значения по умолчанию. Используются в DefaultConfig и config.getDefaultLoggingConfig.
const (
	DefaultLevel      = LevelInfo
	DefaultFormat     = FormatText
	DefaultOutput     = OutputStderr
	DefaultFilePath   = "/var/log/aihub-smoke.log"
	DefaultMaxSize    = 50 // MB
	DefaultMaxBackups = 3
	DefaultMaxAge     = 7 // days
	DefaultCompress   = true
)

// Config — настройки логирования.
type Config struct {
	// Format: "json" или "text".
	Format string
	// Level: "debug", "info", "warn", "error".
	Level string
	// Output: "stderr" или "file".
	Output string
	// FilePath — путь к файлу логов при Output="file".
	FilePath string

	// Параметры ротации lumberjack.
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// DefaultConfig возвращает Config со значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		Level:      DefaultLevel,
		Format:     DefaultFormat,
		Output:     DefaultOutput,
		FilePath:   DefaultFilePath,
		MaxSize:    DefaultMaxSize,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAge,
		Compress:   DefaultCompress,
	}
}
