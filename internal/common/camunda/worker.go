// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
)

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Recorder receives per-job telemetry. *observability.Observability implements it.
type Recorder interface {
	RecordJob(ctx context.Context, taskType, status string, duration time.Duration)
	RecordToolOutput(ctx context.Context, taskType string, size int)
}

// Retrier sends a broker command, retrying transient failures. *Client
// implements it.
type Retrier interface {
	ExecuteWithRetry(ctx context.Context, commandFunc func(context.Context) (interface{}, error), operationName string) (interface{}, error)
}

// Jobs reports the outcome of jobs of one task type back to the broker and
// keeps the worker metrics in step.
type Jobs struct {
	taskType string
	recorder Recorder
	retrier  Retrier
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

// NewJobs builds the reporter of one task type. A nil retrier sends every
// command once.
func NewJobs(taskType string, recorder Recorder, retrier Retrier, log logger.Logger) *Jobs {
	return &Jobs{
		taskType: taskType,
		recorder: recorder,
		retrier:  retrier,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

// Begin marks a job as active and returns its start time.
func (j *Jobs) Begin() time.Time {
	metrics.WorkerJobsActive.WithLabelValues(j.taskType).Inc()
	return time.Now()
}

// Complete sends output as the job variables. size is the length of the
// tool result carried in output.
func (j *Jobs) Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, size int, start time.Time) {
	defer j.finish(ctx, statusCompleted, start)

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		j.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	send := func(ctx context.Context) (interface{}, error) { return cmd.Send(ctx) }
	if err := j.send(ctx, "complete job", send); err != nil {
		j.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(j.taskType).Inc()
	if j.recorder != nil {
		j.recorder.RecordToolOutput(ctx, j.taskType, size)
	}
	j.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"resultSize": size,
		"duration":   time.Since(start).String(),
	})
}

// Fail hands err to the error handler, which either fails the job with
// retries or throws a BPMN error.
func (j *Jobs) Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	defer j.finish(ctx, statusFailed, start)

	code := apperrors.ErrCodeInternal
	if se, ok := apperrors.AsStandard(err); ok {
		code = se.Code
	}
	metrics.WorkerJobsFailed.WithLabelValues(j.taskType, string(code)).Inc()
	j.errors.HandleJobError(ctx, client, job, err)
}

func (j *Jobs) send(ctx context.Context, operation string, command func(context.Context) (interface{}, error)) error {
	if j.retrier == nil {
		_, err := command(ctx)
		return err
	}
	_, err := j.retrier.ExecuteWithRetry(ctx, command, operation)
	return err
}

func (j *Jobs) finish(ctx context.Context, status string, start time.Time) {
	elapsed := time.Since(start)
	metrics.WorkerJobsActive.WithLabelValues(j.taskType).Dec()
	metrics.WorkerJobDuration.WithLabelValues(j.taskType).Observe(elapsed.Seconds())
	if j.recorder != nil {
		j.recorder.RecordJob(ctx, j.taskType, status, elapsed)
	}
}
