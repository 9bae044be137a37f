package config

type Bot struct {
	// Enabled turns on the telegram alert channel; token and chat id are only
	// required when it is set.
	Enabled bool   `env:"BOT_ENABLED" envDefault:"false"`
	Token   string `env:"BOT_TOKEN"`
	ChatID  int64  `env:"BOT_CHAT_ID"`
}
