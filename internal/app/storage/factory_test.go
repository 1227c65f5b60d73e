package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-schema-sync/internal/config"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

func TestNewStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  func(t *testing.T) *config.Config
		wantErr string
	}{
		{
			name:    "nil config",
			config:  func(*testing.T) *config.Config { return nil },
			wantErr: "config cannot be nil",
		},
		{
			name:   "memory by default",
			config: func(*testing.T) *config.Config { return &config.Config{NodeName: "node-a"} },
		},
		{
			name: "sqlite",
			config: func(t *testing.T) *config.Config {
				return &config.Config{
					NodeName: "node-a",
					Store: config.StoreConfig{
						Type: config.StoreTypeSQLite,
						Path: filepath.Join(t.TempDir(), "records.db"),
					},
				}
			},
		},
		{
			name: "sqlite without path",
			config: func(*testing.T) *config.Config {
				return &config.Config{Store: config.StoreConfig{Type: config.StoreTypeSQLite}}
			},
			wantErr: "failed to open sqlite store",
		},
		{
			name: "postgres without database",
			config: func(*testing.T) *config.Config {
				return &config.Config{Store: config.StoreConfig{Type: config.StoreTypePostgres}}
			},
			wantErr: "database configuration is required",
		},
		{
			name: "unknown type",
			config: func(*testing.T) *config.Config {
				return &config.Config{Store: config.StoreConfig{Type: "etcd"}}
			},
			wantErr: "unknown store type: etcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			st, err := NewStore(ctx, tt.config(t), nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })

			chain, err := st.NewChain(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, chain.ID())

			_, err = st.Get(ctx, store.Location("/missing:record"))
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}
