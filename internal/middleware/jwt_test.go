package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret, sub, role string) string {
    t.Helper()
    claims := jwt.MapClaims{
        "sub":  sub,
        "role": role,
        "exp":  time.Now().UTC().Add(time.Hour).Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := tok.SignedString([]byte(secret))
    require.NoError(t, err)
    return signed
}

func runAuth(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    for i := len(mw) - 1; i >= 0; i-- {
        handler = mw[i](handler)
    }
    require.NoError(t, handler(c))
    return rec, c
}

func TestJWTAuthStoresClaims(t *testing.T) {
    tok := signedToken(t, testSecret, "user-1", "admin")
    rec, c := runAuth(t, "Bearer "+tok, JWTAuth(testSecret))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "user-1", c.Get("user_id"))
    assert.Equal(t, "admin", c.Get("role"))
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
    rec, _ := runAuth(t, "", JWTAuth(testSecret))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
    tok := signedToken(t, "other-secret", "user-1", "admin")
    rec, _ := runAuth(t, "Bearer "+tok, JWTAuth(testSecret))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
    tok := signedToken(t, testSecret, "user-1", "admin")
    rec, _ := runAuth(t, "Bearer "+tok, JWTAuth(testSecret), RequireRole("admin"))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
    tok := signedToken(t, testSecret, "user-1", "user")
    rec, _ := runAuth(t, "Bearer "+tok, JWTAuth(testSecret), RequireRole("admin"))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
