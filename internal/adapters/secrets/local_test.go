package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

func TestLocalSecretFromEnv(t *testing.T) {
	t.Setenv("TENANTAPI_JWT_SECRET", "from-env")
	t.Setenv("TENANTAPI_ADMIN_API_KEY", `{"admin_api_key":"root"}`)

	p, err := NewLocal("", nil)
	require.NoError(t, err)

	got, err := p.Secret(context.Background(), "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = p.Secret(context.Background(), "admin_api_key#admin_api_key")
	require.NoError(t, err)
	assert.Equal(t, "root", got)

	_, err = p.Secret(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = p.Secret(context.Background(), "admin_api_key#nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalSecretFromFileAndReload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(file, []byte("jwt:\n  secret: one\nadmin_api_key: root\n"), 0o600))

	p, err := NewLocal(file, nil)
	require.NoError(t, err)

	got, err := p.Secret(context.Background(), "jwt#secret")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = p.Secret(context.Background(), "admin_api_key")
	require.NoError(t, err)
	assert.Equal(t, "root", got)

	require.NoError(t, os.WriteFile(file, []byte("jwt:\n  secret: two\n"), 0o600))
	require.NoError(t, p.Reload())

	got, err = p.Secret(context.Background(), "jwt#secret")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

func TestLocalWatchPicksUpChanges(t *testing.T) {
	file := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(file, []byte("jwt_secret: one\n"), 0o600))

	p, err := NewLocal(file, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, p.Watch(ctx))

	require.NoError(t, os.WriteFile(file, []byte("jwt_secret: two\n"), 0o600))
	assert.Eventually(t, func() bool {
		got, err := p.Secret(context.Background(), "jwt_secret")
		return err == nil && got == "two"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewLocalMissingFile(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}
