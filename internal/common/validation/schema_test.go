package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/pkg/registry"
)

func queryInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "minLength": 1},
		},
		"required": []interface{}{"query"},
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"query": "김치찌개"}, true, ""},
		{"missing", map[string]interface{}{}, false, "(root)"},
		{"wrong type", map[string]interface{}{"query": 3}, false, "query"},
		{"too short", map[string]interface{}{"query": ""}, false, "query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateInput(tt.input, queryInputSchema())
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantField != "" {
				var fields []string
				for _, e := range res.Errors {
					fields = append(fields, e.Field)
				}
				assert.Contains(t, fields, tt.wantField, res.GetErrorMessages())
			}
		})
	}
}

func TestValidator(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	v := NewValidator(reg)

	assert.NoError(t, v.Validate("search-recipe-online", `{"query":"김치찌개 레시피","extra":1}`))
	assert.NoError(t, v.Validate("search-food-by-image", `{"imageSource":""}`), "empty sources are answered by the tool")
	assert.NoError(t, v.Validate("unknown-task", `{}`))

	err = v.Validate("get-restaurant-reviews", `{"query":"강남전집"}`)
	require.Error(t, err)
	se, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeSchemaValidationFailed, se.Code)
	assert.Contains(t, se.Details, "restaurantName")

	err = v.Validate("get-nutrition-info", `not json`)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestValidator_Nil(t *testing.T) {
	var v *Validator
	assert.NoError(t, v.Validate("search-recipe-online", `{}`))
	assert.NoError(t, NewValidator(nil).Validate("search-recipe-online", `{}`))
}
