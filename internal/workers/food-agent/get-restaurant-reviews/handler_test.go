// internal/workers/food-agent/get-restaurant-reviews/handler_test.go
package getrestaurantreviews

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nurlan6812/food-agent/internal/common/config"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/validation"
	"github.com/nurlan6812/food-agent/pkg/registry"
)

// ==========================
// Mocks
// ==========================

type MockTool struct {
	mock.Mock
}

func (m *MockTool) GetRestaurantReviews(ctx context.Context, restaurantName string) string {
	return m.Called(ctx, restaurantName).String(0)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "food-agent",
		ElementId:          "Activity_GetRestaurantReviews",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, tool Tool) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, tool, nil, nil, logger.NewTestLogger(t))
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tool := new(MockTool)
	tool.On("GetRestaurantReviews", mock.Anything, "을지면옥").Return("[을지면옥 후기]")
	h := createTestHandler(t, tool)

	out, err := h.Execute(context.Background(), &Input{RestaurantName: "  을지면옥 "})
	require.NoError(t, err)
	assert.Equal(t, "[을지면옥 후기]", out.Result)
	tool.AssertExpectations(t)
}

func TestHandler_Execute_BlankInput(t *testing.T) {
	tool := new(MockTool)
	h := createTestHandler(t, tool)

	for _, in := range []string{"", "   ", "\t\n"} {
		out, err := h.Execute(context.Background(), &Input{RestaurantName: in})
		require.Error(t, err)
		assert.Nil(t, out)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}
	tool.AssertNotCalled(t, "GetRestaurantReviews", mock.Anything, mock.Anything)
}

// ==========================
// Job variables
// ==========================

func TestHandler_JobVariables(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	validator := validation.NewValidator(reg)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
	}{
		{"valid", map[string]interface{}{"restaurantName": "을지면옥", "sessionId": "s-1"}, false},
		{"missing field", map[string]interface{}{"sessionId": "s-1"}, true},
		{"empty field", map[string]interface{}{"restaurantName": ""}, true},
		{"wrong type", map[string]interface{}{"restaurantName": 42}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := createMockJob(7, tt.variables)
			err := validator.Validate(TaskType, job.Variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)

			var input Input
			require.NoError(t, json.Unmarshal([]byte(job.Variables), &input))
			assert.Equal(t, "을지면옥", input.RestaurantName)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, defaultTimeout, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{Timeout: 30000}).Timeout)
}
