package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"foros/internal/config"
	"foros/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, 42, "ana", models.RoleAdmin)
	require.NoError(t, err)

	userID, role, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, models.RoleAdmin, role)

	_, _, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)

	_, err = IssueToken("", 1, "ana", models.RoleUser)
	assert.Error(t, err)
}

func TestParseToken_RejectsForeignClaims(t *testing.T) {
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "7",
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		ok     bool
	}{
		{"valid", func(jwt.MapClaims) {}, true},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "someone-else" }, false},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }, false},
		{"missing exp", func(c jwt.MapClaims) { delete(c, "exp") }, false},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }, false},
		{"non numeric subject", func(c jwt.MapClaims) { c["sub"] = "abc" }, false},
		{"zero subject", func(c jwt.MapClaims) { c["sub"] = "0" }, false},
		{"numeric subject type", func(c jwt.MapClaims) { c["sub"] = 7 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := base()
			tt.mutate(claims)
			userID, role, err := ParseToken(testSecret, signClaims(t, claims))
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, uint(7), userID)
				assert.Equal(t, models.RoleUser, role)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	generateToken := func(userID uint, exp time.Duration) string {
		return signClaims(t, jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(exp).Unix(),
		})
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + generateToken(123, time.Hour), http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + generateToken(123, -time.Hour), http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	app.Get("/test", OptionalAuth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": CurrentUserID(c)})
	})

	token, err := IssueToken(testSecret, 9, "bo", models.RoleUser)
	require.NoError(t, err)

	for _, tc := range []struct {
		header string
		want   float64
	}{
		{"", 0},
		{"Bearer garbage", 0},
		{"Bearer " + token, 9},
	} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tc.want, body["userID"])
	}
}
