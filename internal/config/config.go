package config

// Config is the process-wide configuration surface. It is loaded once at
// startup by New and never mutated afterwards; components receive it
// explicitly rather than re-reading environment state per call.
type Config interface {
	EnvConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDatabaseURL() string
}

type mainConfig struct {
	EnvVars
	Security
}

func New() Config {
	return mainConfig{
		EnvVars:  loadEnvVars(),
		Security: loadSecurity(),
	}
}
