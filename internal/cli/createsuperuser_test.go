package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/users"
)

func newCommand(t *testing.T, input string) (*CreateSuperuserCommand, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		Database: config.Database{URL: filepath.Join(t.TempDir(), "offer.db"), LogLevel: "silent"},
		Auth:     config.Auth{BcryptCost: 4},
		Logging:  config.Logging{Level: "error"},
	}
	out := &bytes.Buffer{}
	cmd := NewCreateSuperuserCommand(cfg)
	cmd.in = strings.NewReader(input)
	cmd.out = out
	return cmd, out
}

func TestCreateSuperuser_PromptsForMissingFields(t *testing.T) {
	cmd, out := newCommand(t, "admin@example.com\nStr0ng!Pass\n")
	require.NoError(t, cmd.ParseFlags([]string{"-username", "admin", "-password", ""}))

	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, out.String(), "Email: ")
	assert.Contains(t, out.String(), `Superuser "admin" created`)

	db, err := database.Open(config.Database{URL: cmd.DatabaseURL}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	user, err := users.NewRepository(db.DB).GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
	assert.Equal(t, "admin@example.com", user.Email)
}

func TestCreateSuperuser_InvalidInput(t *testing.T) {
	cmd, out := newCommand(t, "")
	require.NoError(t, cmd.ParseFlags([]string{"-username", "x", "-email", "bad", "-password", "weak"}))

	err := cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "username:")
	assert.Contains(t, out.String(), "email:")
}

func TestCreateSuperuser_MissingInput(t *testing.T) {
	cmd, _ := newCommand(t, "")
	require.NoError(t, cmd.ParseFlags([]string{"-password", ""}))

	assert.Error(t, cmd.Run(context.Background()))
}
