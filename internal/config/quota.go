package config

type Quota struct {
	DailyLimit int `env:"QUOTA_DAILY_LIMIT" envDefault:"20"`
	// Timezone fixes the day boundary for the run counter.
	Timezone string `env:"QUOTA_TIMEZONE" envDefault:"Asia/Kolkata"`
}
