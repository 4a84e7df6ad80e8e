package backend

import (
	"errors"
	"fmt"
	"strings"

	"budget/internal/config"
)

// FromAppConfig picks the store and broker settings out of the app config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt := BackendType(strings.ToLower(strings.TrimSpace(appConfig.DataBackend)))
	if !bt.IsValid() {
		return Config{}, unknownBackend(appConfig.DataBackend)
	}
	return Config{
		Type:         bt,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate checks that the selected backend has what it needs to open.
func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			return errors.New("sqlite backend needs SQLITE_DB_PATH")
		}
	case PostgresBackend:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("postgres backend needs DATABASE_URL")
		}
	case MemoryBackend:
	default:
		return unknownBackend(string(c.Type))
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return errors.New("AMQP_EXCHANGE is required when AMQP_URL is set")
	}
	return nil
}

// GetBackendTypes lists the supported DATA_BACKEND values.
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, PostgresBackend, MemoryBackend}
}

func unknownBackend(name string) error {
	names := make([]string, 0, 3)
	for _, bt := range GetBackendTypes() {
		names = append(names, bt.String())
	}
	return fmt.Errorf("unknown data backend %q (want one of %s)", name, strings.Join(names, ", "))
}
