package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestE2ELoginRateLimit runs against production rate limits: login allows a
// small burst per IP, and the next attempt inside the window gets 429.
func TestE2ELoginRateLimit(t *testing.T) {
	baseURL := setupContainerWithDefaultRateLimits(t)
	ctx := context.Background()

	c := authsdk.NewClient(baseURL)

	var limited bool
	for i := 0; i < 10; i++ {
		_, err := c.Login(ctx, "ghost@example.com", "wrong-password")
		if authsdk.IsStatus(err, http.StatusTooManyRequests) {
			limited = true
			break
		}
		require.True(t, authsdk.IsStatus(err, http.StatusUnauthorized))
	}
	require.True(t, limited, "expected a 429 within 10 rapid login attempts")
}
