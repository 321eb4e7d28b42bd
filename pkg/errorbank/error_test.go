package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindMappings(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("invalid"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Unavailable("down"), http.StatusServiceUnavailable, codes.Unavailable},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
		{New(Kind("teapot"), ""), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), tt.err.Kind())
		assert.Equal(t, tt.code, tt.err.GRPCCode(), tt.err.Kind())
	}
}

func TestValidationMessages(t *testing.T) {
	in := []string{"Reference is required.", "Invalid status."}
	err := Validation(in)
	in[0] = "mutated"

	require.Equal(t, KindUnprocessableEntity, err.Kind())
	require.Equal(t, []string{"Reference is required.", "Invalid status."}, Messages(err))
	require.True(t, IsKind(fmt.Errorf("wrapped: %w", err), KindUnprocessableEntity))
}

func TestMessagesFallsBackToMessage(t *testing.T) {
	require.Equal(t, []string{"Order not found."}, Messages(NotFound("Order not found.")))
	require.Nil(t, Messages(errors.New("plain")))
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := From(cause)

	require.Equal(t, KindInternal, appErr.Kind())
	require.ErrorIs(t, appErr, cause)
	require.Nil(t, From(nil))

	conflict := Conflict("dup")
	require.Same(t, conflict, From(fmt.Errorf("ctx: %w", conflict)))
}
