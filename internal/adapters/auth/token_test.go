package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventparticipation/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("user-123", domain.RoleOrganizer, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "ORGANIZER", claims.Role)
}

func TestJWTVerifier_Verify(t *testing.T) {
	const secret = "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	sign := func(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid, err := issuer.Issue("user-1", domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := issuer.Issue("user-1", domain.RoleAdmin, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    domain.Identity
		wantErr bool
	}{
		{
			name:  "valid admin",
			token: valid,
			want:  domain.Identity{UserID: "user-1", Role: domain.RoleAdmin},
		},
		{
			name: "unknown role falls back to user",
			token: sign(t, jwtClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
				Role:             "SUPERUSER",
			}, jwt.SigningMethodHS256, []byte(secret)),
			want: domain.Identity{UserID: "user-2", Role: domain.RoleUser},
		},
		{
			name:    "expired",
			token:   expired,
			wantErr: true,
		},
		{
			name:    "wrong secret",
			token:   sign(t, jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}, jwt.SigningMethodHS256, []byte("other")),
			wantErr: true,
		},
		{
			name:    "no expiry",
			token:   sign(t, jwtClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}, jwt.SigningMethodHS256, []byte(secret)),
			wantErr: true,
		},
		{
			name:    "missing subject",
			token:   sign(t, jwtClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}, jwt.SigningMethodHS256, []byte(secret)),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.jwt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
