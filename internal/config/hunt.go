package config

import "time"

type Hunt struct {
	// RunTimeout bounds a single run; an expired deadline surfaces as the
	// timed_out terminal state. Zero disables the deadline.
	RunTimeout time.Duration `env:"HUNT_RUN_TIMEOUT" envDefault:"10m"`
}
