package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/config"
	"github.com/sheikh-saqib/fin-ledger/internal/storage/memory"
)

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.StorageConfig{Driver: config.StorageMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.MemoryLedgerStore{}, store)
	assert.NoError(t, store.Close())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: "mongo"}, zap.NewNop())
	assert.Error(t, err)
}
