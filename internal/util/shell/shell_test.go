package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "data", "'data'"},
		{"empty", "", "''"},
		{"spaces", "my file.sql", "'my file.sql'"},
		{"single quote", "it's", `'it'\''s'`},
		{"metacharacters", "$(rm -rf /); `id` && echo", "'$(rm -rf /); `id` && echo'"},
		{"json", `{"a":'b'}`, `'{"a":'\''b'\''}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Quote(tt.in))
		})
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "'a' 'b c' 'd'\\''e'", Join("a", "b c", "d'e"))
	assert.Empty(t, Join())
}

func TestCommand(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "rm -rf", Command("rm -rf"))
	assert.Equal(t, "rm -rf '/tmp/x y'", Command("rm -rf", "/tmp/x y"))
}
