package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-32-characters-long")

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "empty", header: "", wantErr: ErrMissingToken},
		{name: "no prefix", header: "abc.def.ghi", wantErr: ErrInvalidHeader},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidHeader},
		{name: "empty after prefix", header: "Bearer ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateToken(t *testing.T) {
	valid, err := IssueToken(testSecret, "preview", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "preview", -time.Hour)
	require.NoError(t, err)
	wrongKey, err := IssueToken([]byte("another-secret"), "preview", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{name: "valid", token: valid},
		{name: "expired", token: expired, wantMsg: "token is expired"},
		{name: "wrong key", token: wrongKey, wantMsg: "signature is invalid"},
		{name: "malformed", token: "not.a.valid.jwt.token", wantMsg: "invalid number of segments"},
		{name: "alg none", token: none, wantMsg: "unexpected signing method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, testSecret)
			if tt.wantMsg != "" {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			sub, err := claims.GetSubject()
			require.NoError(t, err)
			assert.Equal(t, "preview", sub)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	token, err := IssueToken(testSecret, "operator", time.Minute)
	require.NoError(t, err)

	ctx, err := Authenticate(context.Background(), "Bearer "+token, testSecret)
	require.NoError(t, err)
	sub, ok := SubjectFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "operator", sub)

	_, err = Authenticate(context.Background(), "", testSecret)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, ok = SubjectFromContext(context.Background())
	assert.False(t, ok)
}
