package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/voicedetect/internal/errors"
)

func TestExpandString(t *testing.T) {
	t.Setenv("VD_TOKEN", "abc123")
	t.Setenv("VD_USER", "admin")
	t.Setenv("VD_EMPTY", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"literal", "literal-value", "literal-value", false},
		{"variable", "${VD_TOKEN}", "abc123", false},
		{"prefix and suffix", "Bearer ${VD_TOKEN}!", "Bearer abc123!", false},
		{"multiple", "${VD_USER}:${VD_TOKEN}", "admin:abc123", false},
		{"fallback unused", "${VD_TOKEN:-other}", "abc123", false},
		{"fallback used", "${VD_MISSING:-other}", "other", false},
		{"empty fallback", "${VD_MISSING:-}", "", false},
		{"empty variable uses fallback", "${VD_EMPTY:-x}", "x", false},
		{"missing", "${VD_MISSING}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "VD_MISSING")
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	write := func(name, content string, perm os.FileMode) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), perm))
		return path
	}

	t.Run("trims trailing newlines only", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(write("key", " key value \r\n\n", 0o600))
		require.NoError(t, err)
		assert.Equal(t, " key value ", got)
	})

	t.Run("permissive file is accepted", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(write("open", "k", 0o644))
		require.NoError(t, err)
		assert.Equal(t, "k", got)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(write("empty", "\n", 0o600))
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(write("large", string(make([]byte, maxFileSize+1)), 0o600))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a regular file")
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(filepath.Join(dir, "missing"))
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile("")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	})
}

func TestResolve(t *testing.T) {
	t.Setenv("VD_API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	got, err := Resolve(path, "${VD_API_KEY}")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got, "file wins over value")

	got, err = Resolve("", "${VD_API_KEY}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Resolve("", "literal")
	require.NoError(t, err)
	assert.Equal(t, "literal", got)

	got, err = Resolve("", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing"), "literal")
	require.Error(t, err)
}
