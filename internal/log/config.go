package log

// Config selects level, line layout and appenders of the process logger.
type Config struct {
	Level     string           `mapstructure:"level"`
	Pattern   string           `mapstructure:"pattern"`
	Time      string           `mapstructure:"time"`
	Appenders []AppenderConfig `mapstructure:"appenders"`
}

// AppenderConfig describes one log destination. Type is "stdout", "stderr"
// or "file"; File is only read for file appenders.
type AppenderConfig struct {
	Type string          `mapstructure:"type"`
	File FileAppenderOpt `mapstructure:"file"`
}

const (
	DefaultLevel   = "info"
	DefaultPattern = "%time [%level] %field %msg\n"
	DefaultTime    = "2006-01-02 15:04:05.000"
)

// DefaultConfig logs at info level to stdout.
func DefaultConfig() Config {
	return Config{
		Level:     DefaultLevel,
		Pattern:   DefaultPattern,
		Time:      DefaultTime,
		Appenders: []AppenderConfig{{Type: "stdout"}},
	}
}
