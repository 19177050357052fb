package config

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	secretKeyVar    = "SECRET_KEY"
	bcryptCostVar   = "BCRYPT_COST"
	tokenTTLVar     = "TOKEN_TTL_SECONDS"
	storeTimeoutVar = "STORE_TIMEOUT_SECONDS"

	defaultTokenTTL     = 24 * time.Hour
	defaultStoreTimeout = 5 * time.Second
)

type SecurityConfig interface {
	GetSecretKey() string
	GetBcryptCost() int
	GetTokenTTL() time.Duration
	GetStoreTimeout() time.Duration
}

type Security struct {
	secretKey    string
	bcryptCost   int
	tokenTTL     time.Duration
	storeTimeout time.Duration
}

var _ SecurityConfig = Security{}

func loadSecurity() Security {
	return Security{
		secretKey:    GetEnv(secretKeyVar, ""),
		bcryptCost:   intFromEnv(bcryptCostVar, bcrypt.DefaultCost),
		tokenTTL:     secondsFromEnv(tokenTTLVar, defaultTokenTTL),
		storeTimeout: secondsFromEnv(storeTimeoutVar, defaultStoreTimeout),
	}
}

// GetSecretKey returns the token signing secret. It must never be logged.
func (s Security) GetSecretKey() string {
	return s.secretKey
}

func (s Security) GetBcryptCost() int {
	return s.bcryptCost
}

func (s Security) GetTokenTTL() time.Duration {
	return s.tokenTTL
}

func (s Security) GetStoreTimeout() time.Duration {
	return s.storeTimeout
}

func intFromEnv(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func secondsFromEnv(envVar string, defaultValue time.Duration) time.Duration {
	seconds, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
