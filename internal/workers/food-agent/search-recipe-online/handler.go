// internal/workers/food-agent/search-recipe-online/handler.go
package searchrecipeonline

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
	TaskType = "search-recipe-online"
)

// Tool returns up to three crawled recipe pages.
type Tool interface {
	SearchRecipeOnline(ctx context.Context, query string) string
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, apperrors.NewInvalidInputError("query is required")
	}

	h.logger.Debug("running tool", map[string]interface{}{"query": query})
	return &Output{Result: h.tool.SearchRecipeOnline(ctx, query)}, nil
}
