package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks decoded job variables against a JSON schema.
func ValidateInput(input interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Validator checks job variables against the input schema registered for a task type.
type Validator struct {
	schemas map[string]map[string]interface{}
}

// NewValidator indexes the input schemas of reg by task type. A nil registry validates nothing.
func NewValidator(reg *registry.ActivityRegistry) *Validator {
	v := &Validator{schemas: make(map[string]map[string]interface{})}
	if reg == nil {
		return v
	}
	for _, a := range reg.Activities {
		if len(a.InputSchema) > 0 {
			v.schemas[a.TaskType] = a.InputSchema
		}
	}
	return v
}

// Validate returns a schema validation error when variables do not satisfy the
// schema of taskType. Task types without a schema always pass.
func (v *Validator) Validate(taskType, variables string) error {
	if v == nil {
		return nil
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return nil
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(variables), &decoded); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}

	result, err := ValidateInput(decoded, schema)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewSchemaValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
