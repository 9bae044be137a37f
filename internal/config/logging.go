package config

import "log/slog"

type Logging struct {
	Level          slog.Level `env:"LOGGING_LEVEL" envDefault:"info"`
	LogFieldMaxLen int        `env:"LOGGING_FIELD_MAX_LEN" envDefault:"2048"`
}
