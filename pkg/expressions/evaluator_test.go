package expressions

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestQueryFiltersByJSONField(t *testing.T) {
	e := NewEvaluator()
	calls := []models.CallFollowUp{
		{CallerName: "Asha", Priority: models.PriorityHigh, Status: models.CallStatusActive},
		{CallerName: "Bala", Priority: models.PriorityLow, Status: models.CallStatusPending},
		{CallerName: "Chitra", Priority: models.PriorityHigh, Status: models.CallStatusCompleted},
	}

	result, err := e.Query("[?priority=='High'].caller_name", calls)
	require.NoError(t, err)
	assert.Equal(t, []any{"Asha", "Chitra"}, result)

	result, err = e.Query("length([?status=='Pending'])", calls)
	require.NoError(t, err)
	assert.Equal(t, float64(1), result)
}

func TestEvaluateBool(t *testing.T) {
	e := NewEvaluator()
	data := map[string]any{"status": "Paid", "items": []any{}}

	ok, err := e.EvaluateBool("status == 'Paid'", data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateBool("items", data)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.EvaluateBool("missing", data)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidExpressionIsBadRequest(t *testing.T) {
	e := NewEvaluator()

	err := e.Validate("[?status==")
	require.Error(t, err)
	require.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	_, err = e.Query("[?status==", []string{})
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestCompiledExpressionsAreCached(t *testing.T) {
	e := NewEvaluator()
	require.NoError(t, e.Validate("name"))
	require.NoError(t, e.Validate("name"))
	assert.Len(t, e.cache, 1)
}
