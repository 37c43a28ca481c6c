package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateJWT("cust-1", "a@example.com", "customer", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	claims, err := ExtractClaims(req)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", claims.UserID)
	assert.Equal(t, "customer", claims.Role)
}

func TestExtractClaimsFromCookie(t *testing.T) {
	SetSecret("test-secret")
	token, err := GenerateJWT("cust-2", "", "customer", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})

	claims, err := ExtractClaims(req)
	require.NoError(t, err)
	assert.Equal(t, "cust-2", claims.UserID)
}

func TestValidateJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	SetSecret("test-secret")
	expired, err := GenerateJWT("cust-1", "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)

	SetSecret("other-secret")
	foreign, err := GenerateJWT("cust-1", "", "", time.Minute)
	require.NoError(t, err)
	SetSecret("test-secret")
	_, err = ValidateJWT(foreign)
	assert.Error(t, err)
}

func TestQueryList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, QueryList([]string{"a", "b, c", " "}))
	assert.Nil(t, QueryList(nil))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 10, ParseInt("", 10))
	assert.Equal(t, 10, ParseInt("ten", 10))
	assert.Equal(t, 4, ParseInt(" 4", 10))
}
