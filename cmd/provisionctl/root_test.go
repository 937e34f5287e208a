package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenIssueSignsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "olympiad-admin")

	out, err := execute(t, "token", "issue", "--role", "school", "--user", "op-7", "--school-id", "SCH-3")
	require.NoError(t, err)

	claims, err := service.NewTokenService(service.TokenConfig{Secret: "cli-secret", Issuer: "olympiad-admin"}).
		ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "op-7", claims.UserID)
	assert.Equal(t, models.RoleSchool, claims.Role)
	assert.Equal(t, "SCH-3", claims.SchoolID)
}

func TestUsageErrorsCarryExitCode(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown role", args: []string{"token", "issue", "--role", "teacher"}},
		{name: "school token without school", args: []string{"token", "issue", "--role", "SCHOOL"}},
		{name: "unknown user type", args: []string{"provision", "--file", "roster.csv", "--user-type", "teacher"}},
		{name: "unknown policy", args: []string{"provision", "--file", "roster.csv", "--policy", "maybe"}},
		{name: "non csv roster", args: []string{"provision", "--file", "roster.xlsx"}},
		{name: "unknown store", args: []string{"--store", "sqlite", "logins", "list"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			var coded *exitError
			require.True(t, errors.As(err, &coded))
			assert.Equal(t, exitUsage, coded.code)
		})
	}
}

func TestProvisionRequiresFile(t *testing.T) {
	_, err := execute(t, "provision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}
