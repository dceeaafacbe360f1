package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{Validation("", "bad", nil), http.StatusBadRequest},
		{NotFound("", "alert"), http.StatusNotFound},
		{Conflict("EMPLOYEE_EXISTS", "dup"), http.StatusConflict},
		{Duplicate("employees", nil), http.StatusConflict},
		{Unauthorized("no token", nil), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{Query("GET_ALERTS_FAILED", "failed", nil), http.StatusInternalServerError},
		{Unavailable(nil), http.StatusInternalServerError},
		{Internal(nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Code)
	}
}

func TestDefaultCodes(t *testing.T) {
	assert.Equal(t, CodeValidation, Validation("", "bad", nil).Code)
	assert.Equal(t, CodeNotFound, NotFound("", "alert").Code)
	assert.Equal(t, "alert not found", NotFound("", "alert").Message)
	assert.Equal(t, CodeQueryFailed, Query("", "failed", nil).Code)
	assert.Equal(t, CodeConnectionFailed, Unavailable(nil).Code)
}

func TestAsUnwrapsChain(t *testing.T) {
	cause := stderrors.New("socket closed")
	wrapped := fmt.Errorf("failed to list alerts: %w", Unavailable(cause))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, appErr.Kind)
	assert.Equal(t, "socket closed", appErr.Detail())
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.True(t, IsKind(wrapped, KindUnavailable))
	assert.False(t, IsKind(cause, KindUnavailable))
}

func TestWithCode(t *testing.T) {
	cause := stderrors.New("boom")

	t.Run("plain error becomes query error", func(t *testing.T) {
		appErr, ok := As(WithCode(cause, "GET_ALERTS_FAILED", "failed to get alerts"))
		require.True(t, ok)
		assert.Equal(t, KindQuery, appErr.Kind)
		assert.Equal(t, "GET_ALERTS_FAILED", appErr.Code)
		assert.Equal(t, cause, appErr.Err)
	})

	t.Run("query error is relabelled", func(t *testing.T) {
		appErr, _ := As(WithCode(Query("", "x", cause), "GET_LOGS_FAILED", "failed to get logs"))
		assert.Equal(t, "GET_LOGS_FAILED", appErr.Code)
	})

	t.Run("connection failure keeps its code", func(t *testing.T) {
		appErr, _ := As(WithCode(Unavailable(cause), "GET_LOGS_FAILED", "failed"))
		assert.Equal(t, CodeConnectionFailed, appErr.Code)
	})

	t.Run("validation error passes through", func(t *testing.T) {
		in := Validation(CodeInvalidDateRange, "bad date", nil)
		assert.Same(t, in, WithCode(in, "GET_LOGS_FAILED", "failed"))
	})

	t.Run("duplicate key keeps its code", func(t *testing.T) {
		in := Duplicate("promotions", cause)
		assert.Same(t, in, WithCode(in, "CREATE_PROMOTION_FAILED", "failed"))
		assert.Equal(t, "record already exists in promotions", in.Message)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WithCode(nil, "X", "y"))
	})
}
