package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"", tableFormatter{}},
		{"table", tableFormatter{}},
		{"SQL", sqlFormatter{}},
		{"json", jsonFormatter{}},
		{" JSON ", jsonFormatter{}},
		{"summary", summaryFormatter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestNewFormatterInvalidFormat(t *testing.T) {
	_, err := NewFormatter("yaml")
	assert.ErrorContains(t, err, "unsupported format: yaml")
}

func TestNormalizeStatement(t *testing.T) {
	assert.Equal(t, "", normalizeStatement("  "))
	assert.Equal(t, "SELECT 1;", normalizeStatement(" SELECT 1 "))
	assert.Equal(t, "SELECT 1;", normalizeStatement("SELECT 1;"))
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "CREATE TABLE `t` ( `id` int )", oneLine("CREATE TABLE `t` (\n  `id` int\n)", 0))
	assert.Equal(t, "abcdefg...", oneLine("abcdefghijklmnop", 10))
}
