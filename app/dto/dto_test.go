package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIResponseEnvelope(t *testing.T) {
	t.Run("success omits the error key", func(t *testing.T) {
		raw, err := json.Marshal(APIResponse{
			Success: true,
			Message: "Gate status",
			Data:    GateStatusResponse{Unlocked: true},
		})
		require.NoError(t, err)
		assert.NotContains(t, string(raw), `"error"`)
		assert.Contains(t, string(raw), `"unlocked":true`)
	})

	t.Run("error carries code and details", func(t *testing.T) {
		raw, err := json.Marshal(APIResponse{
			Success: false,
			Message: "Please enter a valid email address.",
			Error: &ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Details: map[string]string{"email": "Please enter a valid email address."},
			},
		})
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		errObj, ok := decoded["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
		assert.NotContains(t, string(raw), `"data"`)
	})
}
