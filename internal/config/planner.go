package config

import "time"

type Planner struct {
	BaseURL        string        `env:"PLANNER_BASE_URL,required"`
	Token          string        `env:"PLANNER_TOKEN"`
	RequestTimeout time.Duration `env:"PLANNER_REQUEST_TIMEOUT" envDefault:"5m"`
}
