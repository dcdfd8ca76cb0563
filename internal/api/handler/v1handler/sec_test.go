package v1handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phishvault/internal/api/handler/v1handler"
	"phishvault/pkg/domain"
	"phishvault/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testIssuer = "phishvault-test"

func genRSAKeys(tb testing.TB) (*rsa.PrivateKey, string) {
	tb.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(tb, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(tb, err)

	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func newSecHandlerForTest(t *testing.T, pubPEM string) *v1handler.SecHandler {
	t.Helper()

	sh, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: pubPEM, Issuer: testIssuer})
	require.NoError(t, err)

	return sh
}

func signClaims(tb testing.TB, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	tb.Helper()

	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(tb, err)

	return signed
}

func signJWTRS256(tb testing.TB, priv *rsa.PrivateKey, sub string, issuedAt time.Time, exp time.Time) string {
	tb.Helper()

	return signClaims(tb, jwt.SigningMethodRS256, priv, jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
}

func TestHandleBearerAuth(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	other, _ := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	uid := uuid.New()
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   uid.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	cases := []struct {
		name   string
		token  func() string
		wantOK bool
	}{
		{
			name:   "valid",
			token:  func() string { return signClaims(t, jwt.SigningMethodRS256, priv, valid()) },
			wantOK: true,
		},
		{
			name: "expired within clock skew",
			token: func() string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-10 * time.Second))

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
			wantOK: true,
		},
		{
			name:  "signed by another key",
			token: func() string { return signClaims(t, jwt.SigningMethodRS256, other, valid()) },
		},
		{
			name: "expired",
			token: func() string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
		},
		{
			name: "not yet valid",
			token: func() string {
				c := valid()
				c.NotBefore = jwt.NewNumericDate(now.Add(10 * time.Minute))

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
		},
		{
			name: "missing expiry",
			token: func() string {
				c := valid()
				c.ExpiresAt = nil

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := valid()
				c.Issuer = "someone-else"

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
		},
		{
			name: "missing issuer",
			token: func() string {
				c := valid()
				c.Issuer = ""

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
		},
		{
			name: "subject is not a uuid",
			token: func() string {
				c := valid()
				c.Subject = "not-a-uuid"

				return signClaims(t, jwt.SigningMethodRS256, priv, c)
			},
		},
		{
			name:  "hmac signed",
			token: func() string { return signClaims(t, jwt.SigningMethodHS256, []byte("secret"), valid()) },
		},
		{
			name:  "not a jwt",
			token: func() string { return "abc.def" },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, err := sh.HandleBearerAuth(context.Background(), tc.token())
			if !tc.wantOK {
				require.ErrorIs(t, err, serrors.ErrUnauthorized)

				return
			}
			require.NoError(t, err)
			require.Equal(t, domain.UserID(uid), v1handler.GetUserIDFromContext(ctx))
		})
	}
}

func TestHandleBearerAuth_NoIssuerConfigured(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: pubPEM})
	require.NoError(t, err)

	now := time.Now()
	tkn := signClaims(t, jwt.SigningMethodRS256, priv, jwt.RegisteredClaims{
		Issuer:    "anyone",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	_, err = sh.HandleBearerAuth(context.Background(), tkn)
	require.NoError(t, err)
}

func TestNewSecHandler_InvalidKey(t *testing.T) {
	_, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: "not a key"})
	require.Error(t, err)
}

func TestSecMiddleware(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	uid := uuid.New()
	var seen domain.UserID
	h := sh.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = v1handler.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "missing header", status: http.StatusUnauthorized, message: "missing bearer token"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, message: "missing bearer token"},
		{name: "garbage token", header: "Bearer abc", status: http.StatusUnauthorized, message: "invalid token"},
		{
			name:   "valid token",
			header: "Bearer " + signJWTRS256(t, priv, uid.String(), time.Now(), time.Now().Add(time.Hour)),
			status: http.StatusNoContent,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/scans", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				require.JSONEq(t, `{"code":"UNAUTHORIZED","message":"`+tc.message+`"}`, rec.Body.String())
			}
		})
	}
	require.Equal(t, domain.UserID(uid), seen)
}
