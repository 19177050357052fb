package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	envVar        = "ENV"
	databaseVar   = "DATABASE_URL"
	defaultPort   = "8080"
	defaultAppStr = "Scribe Session Server"
)

type EnvVars struct {
	port        string
	appName     string
	env         string
	databaseURL string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars() EnvVars {
	port := GetEnv(portEnvVar, defaultPort)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return EnvVars{
		port:        port,
		appName:     GetEnv(appNameVar, defaultAppStr),
		env:         GetEnv(envVar, "DEV"),
		databaseURL: GetEnv(databaseVar, ""),
	}
}

func (e EnvVars) GetPort() string {
	return e.port
}

func (e EnvVars) GetAppName() string {
	return e.appName
}

func (e EnvVars) GetEnv() string {
	return e.env
}

// GetDatabaseURL returns the Postgres DSN. Empty means the server runs with
// in-memory stores, which is only useful for local development.
func (e EnvVars) GetDatabaseURL() string {
	return e.databaseURL
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
