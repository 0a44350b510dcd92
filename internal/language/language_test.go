package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/voicedetect/internal/errors"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{"Tamil", Tamil, false},
		{"  English\n", English, false},
		{"Hindi", Hindi, false},
		{"Malayalam", Malayalam, false},
		{"Telugu", Telugu, false},
		{"tamil", "", true},
		{"French", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupported)
				assert.True(t, errors.IsCategory(err, errors.CategoryUnsupportedLanguage))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllOrderAndCopy(t *testing.T) {
	t.Parallel()

	langs := All()
	assert.Equal(t, []Language{Tamil, English, Hindi, Malayalam, Telugu}, langs)

	langs[0] = "Klingon"
	assert.Equal(t, Tamil, All()[0])
	assert.Equal(t, []string{"Tamil", "English", "Hindi", "Malayalam", "Telugu"}, Names())
}

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	table := DefaultTable()

	tests := []struct {
		lang      Language
		topDB     float64
		mean, std float64
	}{
		{Tamil, 28, -35, 15},
		{English, 32, -34, 14.5},
		{Hindi, 30, -36, 15.5},
		{Malayalam, 26, -35.5, 15.2},
		{Telugu, 29, -35.8, 15.3},
	}

	for _, tt := range tests {
		topDB, err := table.TrimTopDB(tt.lang)
		require.NoError(t, err)
		assert.InDelta(t, tt.topDB, topDB, 1e-12, tt.lang)

		mean, std, err := table.Norm(tt.lang)
		require.NoError(t, err)
		assert.InDelta(t, tt.mean, mean, 1e-12, tt.lang)
		assert.InDelta(t, tt.std, std, 1e-12, tt.lang)
	}

	_, err := table.Lookup("Klingon")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Telugu.Valid())
	assert.False(t, Language("telugu").Valid())
}
