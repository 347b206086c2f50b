package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "ok", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "scheme is case-insensitive", header: "bearer tok", want: "tok"},
		{name: "missing", header: "", wantErr: ErrMissingAuthHeader},
		{name: "no token", header: "Bearer", wantErr: ErrInvalidAuthHeaderFormat},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidAuthHeaderFormat},
		{name: "extra parts", header: "Bearer a b", wantErr: ErrInvalidAuthHeaderFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGate_Check(t *testing.T) {
	tokens := newTokenService(t, "secret")
	gate := NewGate(tokens)

	valid, err := tokens.Issue("user-1")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	expired, err := newTokenService(t, "secret", WithClock(func() time.Time { return past })).Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid token", header: "Bearer " + valid, want: "user-1"},
		{name: "no header", header: "", wantErr: ErrMissingAuthHeader},
		{name: "malformed header", header: valid, wantErr: ErrInvalidAuthHeaderFormat},
		{name: "expired token", header: "Bearer " + expired, wantErr: common.ErrTokenExpired},
		{name: "garbage token", header: "Bearer nope", wantErr: common.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
			if tt.header != "" {
				r.Header.Set(common.AuthorizationHeaderName, tt.header)
			}

			got, err := gate.Check(r)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, common.ErrUnauthorized)
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}
