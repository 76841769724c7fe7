package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MONGO_DB_NAME=from_dotenv\n"), 0o644))

	// t.Setenv restores the original value; the unset makes godotenv
	// the only source for the variable during this test.
	t.Setenv("MONGO_DB_NAME", "")
	os.Unsetenv("MONGO_DB_NAME")
	t.Chdir(dir)

	cfg := Load()
	assert.Equal(t, "from_dotenv", cfg.MongoDBName)
}

func TestLoadEnvironmentWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MONGO_DB_NAME=from_dotenv\n"), 0o644))

	t.Setenv("MONGO_DB_NAME", "from_env")
	t.Chdir(dir)

	cfg := Load()
	assert.Equal(t, "from_env", cfg.MongoDBName)
}
