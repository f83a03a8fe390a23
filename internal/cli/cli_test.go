package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catapult/internal/platform/middleware"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "token", "--tenant", "7", "--signing-key", "cli-key")
	require.NoError(t, err)

	claims, err := middleware.NewTenantValidator("cli-key").Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.TenantID)
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid format", []string{"token", "--format", "yaml"}, "invalid format"},
		{"token without tenant", []string{"token", "--signing-key", "k"}, "--tenant is required"},
		{"waive with bad index", []string{"waive", "code-1", "first", "--tenant", "7", "--reason", "x"}, "invalid au-index"},
		{"waive without reason", []string{"waive", "code-1", "0", "--tenant", "7", "--reason", "  "}, "--reason is required"},
		{"waive without tenant", []string{"waive", "code-1", "0", "--reason", "x"}, "--tenant is required"},
		{"delete-course with bad id", []string{"delete-course", "abc", "--tenant", "7"}, "invalid course-id"},
		{"migrate without dsn", []string{"migrate", "up", "--database-url", ""}, "missing DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
