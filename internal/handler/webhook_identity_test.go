package handler

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "net/http"
    "net/http/httptest"
    "regexp"
    "strings"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinebook/cinebook/internal/repository"
)

const identitySecret = "whsec_test"

func signIdentity(body string) string {
    mac := hmac.New(sha256.New, []byte(identitySecret))
    mac.Write([]byte(body))
    return hex.EncodeToString(mac.Sum(nil))
}

func identityRequest(t *testing.T, body, sig string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if sig != "" {
        req.Header.Set("X-Webhook-Signature", sig)
    }
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    h := NewIdentityWebhookHandler(repository.NewUserRepo(db), identitySecret)
    body := `{"type":"user.created","data":{"id":"u1"}}`
    c, rec := identityRequest(t, body, "deadbeef")

    require.NoError(t, h.Handle(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    // Nothing was written.
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityWebhookCreatesUser(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
        WithArgs("u1", "Ada Lovelace", "ada@example.com", "https://img.example/a.png").
        WillReturnResult(sqlmock.NewResult(0, 1))

    h := NewIdentityWebhookHandler(repository.NewUserRepo(db), identitySecret)
    body := `{"type":"user.created","data":{"id":"u1","first_name":"Ada","last_name":"Lovelace",` +
        `"image_url":"https://img.example/a.png","email_addresses":[{"email_address":"ada@example.com"}]}}`
    c, rec := identityRequest(t, body, signIdentity(body))

    require.NoError(t, h.Handle(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityWebhookDeletesUser(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE user_id = ?")).
        WithArgs("u1").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
        WithArgs("u1").
        WillReturnResult(sqlmock.NewResult(0, 1))

    h := NewIdentityWebhookHandler(repository.NewUserRepo(db), identitySecret)
    body := `{"type":"user.deleted","data":{"id":"u1"}}`
    c, rec := identityRequest(t, body, signIdentity(body))

    require.NoError(t, h.Handle(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityWebhookIgnoresUnknownType(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    h := NewIdentityWebhookHandler(repository.NewUserRepo(db), identitySecret)
    body := `{"type":"session.created","data":{"id":"u1"}}`
    c, rec := identityRequest(t, body, signIdentity(body))

    require.NoError(t, h.Handle(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}
