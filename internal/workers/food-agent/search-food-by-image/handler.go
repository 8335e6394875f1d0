// internal/workers/food-agent/search-food-by-image/handler.go
package searchfoodbyimage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/nurlan6812/food-agent/internal/common/camunda"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/validation"
)

const (
	TaskType = "search-food-by-image"
)

// Tool identifies a dish from a photo and returns the tagged text document.
type Tool interface {
	SearchFoodByImage(ctx context.Context, imageSource string) string
}

type Handler struct {
	config    *Config
	tool      Tool
	validator *validation.Validator
	jobs      *camunda.Jobs
	logger    logger.Logger
}

func NewHandler(config *Config, tool Tool, validator *validation.Validator, jobs *camunda.Jobs, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		tool:      tool,
		validator: validator,
		jobs:      jobs,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := h.jobs.Begin()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := h.validator.Validate(TaskType, job.Variables); err != nil {
		h.jobs.Fail(context.Background(), client, job, err, start)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.jobs.Fail(context.Background(), client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.jobs.Fail(context.Background(), client, job, err, start)
		return
	}

	h.jobs.Complete(context.Background(), client, job, output, len(output.Result), start)
}

// Execute runs the image tool. Empty or unreadable sources are not job errors:
// the tool answers them with its own guidance text.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	source := strings.TrimSpace(input.ImageSource)
	h.logger.Debug("searching food by image", map[string]interface{}{
		"remote": strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"),
	})
	return &Output{Result: h.tool.SearchFoodByImage(ctx, source)}, nil
}
