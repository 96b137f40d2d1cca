package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	gatewayconfig "coversdk/gateway/config"
)

const testSecret = "gateway-secret"

func signToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(gatewayconfig.AuthConfig{
		Enabled:       true,
		HMACSecret:    testSecret,
		Issuer:        "cover-issuer",
		Audience:      "cover-gateway",
		OptionalPaths: []string{"/healthz"},
	}, nil)
}

func serveAuth(a *Authenticator, path, token string, scopes ...string) *httptest.ResponseRecorder {
	var seenScopes []string
	handler := a.Middleware(scopes...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenScopes, _ = r.Context().Value(ContextKeyScopes).([]string)
		if len(seenScopes) > 0 {
			w.Header().Set("X-Scopes", seenScopes[0])
		}
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "cover-issuer",
		"aud":   "cover-gateway",
		"sub":   "partner-1",
		"scope": "quote:read capacity:read",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthenticatorAcceptsValidToken(t *testing.T) {
	auth := newTestAuthenticator()
	token := signToken(t, validClaims(), jwt.SigningMethodHS256, []byte(testSecret))
	res := serveAuth(auth, "/v1/quote", token, "quote:read")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "quote:read", res.Header().Get("X-Scopes"))
}

func TestAuthenticatorRejects(t *testing.T) {
	auth := newTestAuthenticator()

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := validClaims()
	wrongAudience["aud"] = []any{"other"}

	cases := map[string]struct {
		token  string
		status int
		scopes []string
	}{
		"missing token":  {"", http.StatusUnauthorized, nil},
		"bad signature":  {signToken(t, validClaims(), jwt.SigningMethodHS256, []byte("other")), http.StatusUnauthorized, nil},
		"expired":        {signToken(t, expired, jwt.SigningMethodHS256, []byte(testSecret)), http.StatusUnauthorized, nil},
		"issuer":         {signToken(t, wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret)), http.StatusUnauthorized, nil},
		"audience":       {signToken(t, wrongAudience, jwt.SigningMethodHS256, []byte(testSecret)), http.StatusUnauthorized, nil},
		"missing scope":  {signToken(t, validClaims(), jwt.SigningMethodHS256, []byte(testSecret)), http.StatusForbidden, []string{"admin"}},
		"malformed":      {"not-a-jwt", http.StatusUnauthorized, nil},
		"unsigned token": {signToken(t, validClaims(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), http.StatusUnauthorized, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := serveAuth(auth, "/v1/quote", tc.token, tc.scopes...)
			require.Equal(t, tc.status, res.Code)
			require.Equal(t, "application/json", res.Header().Get("Content-Type"))
		})
	}
}

func TestAuthenticatorOptionalPathsAndDisabled(t *testing.T) {
	auth := newTestAuthenticator()
	require.Equal(t, http.StatusOK, serveAuth(auth, "/healthz", "").Code)

	disabled := NewAuthenticator(gatewayconfig.AuthConfig{}, nil)
	require.Equal(t, http.StatusOK, serveAuth(disabled, "/v1/quote", "").Code)
}

func TestAuthenticatorHonoursClockSkew(t *testing.T) {
	auth := newTestAuthenticator()
	claims := validClaims()
	claims["exp"] = time.Now().Add(-30 * time.Second).Unix()
	token := signToken(t, claims, jwt.SigningMethodHS256, []byte(testSecret))
	require.Equal(t, http.StatusOK, serveAuth(auth, "/v1/quote", token).Code)
}

func TestExtractBearer(t *testing.T) {
	require.Equal(t, "abc", extractBearer("Bearer abc"))
	require.Equal(t, "abc", extractBearer("bearer  abc "))
	require.Empty(t, extractBearer("Basic abc"))
	require.Empty(t, extractBearer("Bearer"))
}

func TestExtractScopesFromList(t *testing.T) {
	scopes := extractScopes(jwt.MapClaims{"scp": []any{"a", 3, "b"}}, "scp")
	require.Equal(t, []string{"a", "b"}, scopes)
	require.True(t, hasScopes(scopes, []string{"b"}))
	require.False(t, hasScopes(scopes, []string{"c"}))
}
