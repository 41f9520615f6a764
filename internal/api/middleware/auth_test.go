package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/api/middleware"
	"github.com/feral-file/ff-sovereignty/internal/auction"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pubPEM)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	key, pubPEM := generateKey(t)
	otherKey, _ := generateKey(t)
	cfg := middleware.AuthConfig{JWTPublicKey: pubPEM, APIKeys: []string{"secret", ""}}

	now := time.Now()
	valid := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	expired := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	})
	noSubject := signToken(t, key, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	forged := signToken(t, otherKey, jwt.RegisteredClaims{Subject: "alice"})

	tests := []struct {
		name        string
		header      string
		cfg         middleware.AuthConfig
		wantSuccess bool
		wantType    string
		wantSubject string
	}{
		{name: "valid jwt", header: "Bearer " + valid, cfg: cfg, wantSuccess: true, wantType: middleware.AUTH_TYPE_JWT, wantSubject: "alice"},
		{name: "expired jwt", header: "Bearer " + expired, cfg: cfg},
		{name: "jwt without subject", header: "Bearer " + noSubject, cfg: cfg},
		{name: "jwt signed by another key", header: "Bearer " + forged, cfg: cfg},
		{name: "jwt without configured key", header: "Bearer " + valid, cfg: middleware.AuthConfig{}},
		{name: "valid api key", header: "ApiKey secret", cfg: cfg, wantSuccess: true, wantType: middleware.AUTH_TYPE_APIKEY, wantSubject: middleware.ADMIN_SUBJECT},
		{name: "unknown api key", header: "ApiKey nope", cfg: cfg},
		{name: "empty api key", header: "ApiKey ", cfg: cfg},
		{name: "missing header", header: "", cfg: cfg},
		{name: "malformed header", header: "Bearer", cfg: cfg},
		{name: "unsupported scheme", header: "Basic dXNlcjpwYXNz", cfg: cfg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := middleware.Authenticate(tt.header, tt.cfg)
			assert.Equal(t, tt.wantSuccess, result.Success)
			if !tt.wantSuccess {
				assert.Error(t, result.Error)
				return
			}
			assert.NoError(t, result.Error)
			assert.Equal(t, tt.wantType, result.AuthType)
			assert.Equal(t, tt.wantSubject, result.AuthSubject)
		})
	}
}

func TestAuth_Actor(t *testing.T) {
	key, pubPEM := generateKey(t)
	cfg := middleware.AuthConfig{JWTPublicKey: pubPEM, APIKeys: []string{"secret"}}
	token := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	var got auction.Actor
	router := gin.New()
	router.POST("/write", middleware.Auth(cfg), func(c *gin.Context) {
		actor, ok := middleware.Actor(c)
		require.True(t, ok)
		got = actor
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantActor  auction.Actor
	}{
		{
			name:       "jwt user",
			headers:    map[string]string{"Authorization": "Bearer " + token, middleware.ACTING_USER_HEADER: "mallory"},
			wantStatus: http.StatusNoContent,
			wantActor:  auction.Actor{UserID: "alice"},
		},
		{
			name:       "api key acts as admin",
			headers:    map[string]string{"Authorization": "ApiKey secret"},
			wantStatus: http.StatusNoContent,
			wantActor:  auction.Actor{UserID: middleware.ADMIN_SUBJECT, Admin: true},
		},
		{
			name:       "api key acting for a user",
			headers:    map[string]string{"Authorization": "ApiKey secret", middleware.ACTING_USER_HEADER: " bob "},
			wantStatus: http.StatusNoContent,
			wantActor:  auction.Actor{UserID: "bob", Admin: true},
		},
		{
			name:       "unauthenticated",
			headers:    map[string]string{},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = auction.Actor{}
			req := httptest.NewRequest(http.MethodPost, "/write", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantActor, got)
		})
	}
}

func TestActor_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := middleware.Actor(c)
	assert.False(t, ok)
}
