package testutil

import (
	"os"
	"testing"

	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/stretchr/testify/require"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment points the process environment at an in-memory SQLite
// database and a fake Auth0 tenant for the rest of the test.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:?cache=shared")
	t.Setenv("AUTH0_DOMAIN", "test.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.bloomhouse.test")
	t.Setenv("AWS_S3_BUCKET", "")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")

	RequireTestEnvironment(t)
}

// LoadTestConfig loads configuration from the test environment and installs it
// as the process configuration until the test ends
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	MustSetTestEnvironment(t)
	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load test configuration")
	require.True(t, cfg.IsTest())

	t.Cleanup(func() { config.SetConfig(nil) })
	return cfg
}
