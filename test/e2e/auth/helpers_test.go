package auth_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helpers for the end-to-end tests: container setup,
 * bootstrap credentials and client construction.
 */

const (
	testImageName = "authgate-test:latest"

	inviteSecret  = "e2e-invite-secret"
	jwtSecret     = "e2e-jwt-secret"
	ownerEmail    = "owner@example.com"
	ownerPassword = "Owner123!pass"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building authgate Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up authgate Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.Command("docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/authgate/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.Command("docker", "rmi", "-f", testImageName).Run()
}

func baseEnv() map[string]string {
	return map[string]string{
		"INVITE_TOKEN_SECRET":      inviteSecret,
		"JWT_SECRET":               jwtSecret,
		"AUTH_DATABASE_FILE":       "/tmp/auth.db",
		"AUTH_PEPPER_FILE":         "/tmp/pepper",
		"BOOTSTRAP_OWNER_EMAIL":    ownerEmail,
		"BOOTSTRAP_OWNER_PASSWORD": ownerPassword,
		"COOKIE_SECURE":            "false",
		"ENV":                      "test",
		"LOG_LEVEL":                "info",
		"LOG_FORMAT":               "json",
	}
}

// setupContainer starts the service with relaxed rate limits so tests can
// hammer the API. Rate limit behavior has its own test with defaults.
func setupContainer(t *testing.T) string {
	t.Helper()

	env := baseEnv()
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"

	return startContainer(t, env)
}

// setupContainerWithDefaultRateLimits keeps production rate limits, for the
// rate limiting test itself.
func setupContainerWithDefaultRateLimits(t *testing.T) string {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// ownerClient logs in as the bootstrapped owner.
func ownerClient(t *testing.T, baseURL string) *authsdk.Client {
	t.Helper()

	c := authsdk.NewClient(baseURL)
	_, err := c.Login(context.Background(), ownerEmail, ownerPassword)
	require.NoError(t, err)
	return c
}
