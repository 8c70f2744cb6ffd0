package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubearchive/tubearchive-server/internal/config"
)

func TestOpen(t *testing.T) {
	for _, name := range []string{"", config.BackendSQLite, config.BackendBadger} {
		t.Run("backend="+name, func(t *testing.T) {
			st, err := Open(name, t.TempDir(), nil)
			require.NoError(t, err)
			defer st.Close()

			n, err := st.CountVideos(context.Background(), "user-1", false)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("postgres", t.TempDir(), nil)
	assert.ErrorContains(t, err, "unknown store backend")
}
