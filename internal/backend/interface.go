// Package backend builds the store selected by configuration, plus the
// optional AMQP publisher used for payment mirror retries.
package backend

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/ports"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is a ready store. AMQP is nil when no broker is configured
// or it could not be reached.
type BackendResult struct {
	Store   ports.Store
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
