package errors

import (
	"net/http"
	"testing"

	"etuition/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestIdentityError_AppError(t *testing.T) {
	tests := []struct {
		kind     IdentityErrorKind
		httpCode int
		code     string
	}{
		{kind: KindInvalidCredential, httpCode: http.StatusUnauthorized, code: "INVALID_CREDENTIAL"},
		{kind: KindUserNotFound, httpCode: http.StatusUnauthorized, code: "USER_NOT_FOUND"},
		{kind: KindEmailAlreadyInUse, httpCode: http.StatusConflict, code: "EMAIL_ALREADY_IN_USE"},
		{kind: KindWeakPassword, httpCode: http.StatusBadRequest, code: "WEAK_PASSWORD"},
		{kind: KindNetworkUnavailable, httpCode: http.StatusBadGateway, code: "NETWORK_UNAVAILABLE"},
		{kind: KindNotSignedIn, httpCode: http.StatusUnauthorized, code: "NOT_SIGNED_IN"},
		{kind: KindUnknown, httpCode: http.StatusInternalServerError, code: "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var appErr AppError = NewIdentityError(tt.kind, nil)

			assert.Equal(t, tt.httpCode, appErr.HTTPCode())
			assert.Equal(t, tt.code, appErr.ErrorCode())
			assert.NotEmpty(t, appErr.Message())
		})
	}
}

func TestIsIdentityKind_ThroughWrapping(t *testing.T) {
	cause := errors.New("EMAIL_EXISTS")
	err := errors.Wrap(NewIdentityError(KindEmailAlreadyInUse, cause), "register")

	assert.True(t, IsIdentityKind(err, KindEmailAlreadyInUse))
	assert.False(t, IsIdentityKind(err, KindWeakPassword))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "identity: email-already-in-use: EMAIL_EXISTS")
}

func TestAuthorizationError_Unwrap(t *testing.T) {
	cause := errors.New("status 403")
	err := NewAuthorizationError(http.StatusForbidden, cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusUnauthorized, err.HTTPCode())
	assert.Equal(t, "SESSION_REJECTED", err.ErrorCode())
}
