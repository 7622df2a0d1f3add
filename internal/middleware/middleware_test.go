package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "cryptostock/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in body, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(EmailKey), "token": c.GetString(TokenKey)})
	})
	return r
}

func signToken(t *testing.T, claims *JWTClaims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := GenerateAccessToken("alice@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	expired := signToken(t, &JWTClaims{
		Email:     "alice@example.com",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, getJWTKey())
	wrongKey := signToken(t, &JWTClaims{Email: "alice@example.com", TokenType: "access"}, []byte("other-secret"))
	refresh := signToken(t, &JWTClaims{Email: "alice@example.com", TokenType: "refresh"}, getJWTKey())
	noEmail := signToken(t, &JWTClaims{TokenType: "access"}, getJWTKey())

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantEmail  string
	}{
		{name: "valid_header", header: "Bearer " + valid, wantStatus: http.StatusOK, wantEmail: "alice@example.com"},
		{name: "valid_query_token", query: valid, wantStatus: http.StatusOK, wantEmail: "alice@example.com"},
		{name: "missing_token", wantStatus: http.StatusUnauthorized},
		{name: "malformed_header", header: "Token " + valid, wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong_key", header: "Bearer " + wrongKey, wantStatus: http.StatusUnauthorized},
		{name: "refresh_token", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
		{name: "no_email_claim", header: "Bearer " + noEmail, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			setupAuthRouter().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if code := errorCode(t, rec); code != "UNAUTHORIZED" {
					t.Errorf("expected UNAUTHORIZED, got %q", code)
				}
				return
			}
			body := parseBody(t, rec)
			if body["email"] != tt.wantEmail {
				t.Errorf("expected email %q, got %v", tt.wantEmail, body["email"])
			}
			if body["token"] != valid {
				t.Error("expected raw token in context")
			}
		})
	}
}

func TestRequireOwner(t *testing.T) {
	token, err := GenerateAccessToken("alice@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	r := gin.New()
	r.GET("/portfolio/:user", AuthMiddleware(), RequireOwner("user"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		user       string
		wantStatus int
		wantCode   string
	}{
		{"same_user", "alice@example.com", http.StatusOK, ""},
		{"same_user_different_case", "Alice@Example.com", http.StatusOK, ""},
		{"other_user", "bob@example.com", http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/portfolio/"+tt.user, http.NoBody)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rec); code != tt.wantCode {
					t.Errorf("expected %s, got %q", tt.wantCode, code)
				}
			}
		})
	}
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRequestLogging_KeepsCallerRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "dash-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "dash-42" {
		t.Errorf("expected caller id to be kept, got %q", got)
	}
	if rec.Body.String() != "dash-42" {
		t.Errorf("expected id in context, got %q", rec.Body.String())
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app_error", apperrors.ErrWalletNotFound, http.StatusNotFound, "WALLET_NOT_FOUND"},
		{"wrapped_app_error", apperrors.Wrap(apperrors.ErrSourceUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/fail", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("expected %s, got %q", tt.wantCode, code)
			}
		})
	}
}

func TestErrorHandler_KeepsWrittenResponse(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/partial", func(c *gin.Context) {
		_ = c.Error(errors.New("logged only"))
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partial", http.NoBody))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if body := parseBody(t, rec); body["ok"] != true {
		t.Errorf("expected handler body, got %v", body)
	}
}

func TestWriteError_HidesUnexpectedErrors(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { WriteError(c, errors.New("pq: password authentication failed")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	errObj := parseBody(t, rec)["error"].(map[string]interface{})
	if errObj["message"] != apperrors.ErrInternalServer.Message {
		t.Errorf("expected generic message, got %v", errObj["message"])
	}
}
