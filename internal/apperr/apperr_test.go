package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusByKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("missing_required_field", "equipment_id").HTTPStatus())
	assert.Equal(t, http.StatusConflict, Conflict("ip_already_assigned", "ip_id", 3).HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound("assignment", 9).HTTPStatus())
	e, _ := As(Infra(errors.New("dial tcp: refused")))
	assert.Equal(t, http.StatusServiceUnavailable, e.HTTPStatus())
	assert.True(t, e.Retryable())
}

func TestInfraKeepsTypedErrors(t *testing.T) {
	orig := Conflict("equipment_already_assigned", "equipment_id", 1)
	wrapped := fmt.Errorf("create: %w", orig)
	assert.Same(t, wrapped, Infra(wrapped))
	assert.True(t, HasCode(wrapped, KindConflict, "equipment_already_assigned"))
	assert.False(t, IsKind(wrapped, KindValidation))
	assert.Nil(t, Infra(nil))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "validation: invalid_reference (employee_id=5)", InvalidReference("employee_id", 5).Error())
	assert.Equal(t, "validation: assignment_needs_target", Validation("assignment_needs_target", "").Error())
}
