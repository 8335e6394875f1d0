package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"config", NewNotConfiguredError("serper", "SERPER_API_KEY가 설정되지 않았습니다."), KindConfig},
		{"timeout", NewProviderTimeoutError("serpapi", 30*time.Second, context.DeadlineExceeded), KindTimeout},
		{"status", NewProviderStatusError("kakao", 500), KindBadResponse},
		{"not found", NewNoResultsError("nothing"), KindNotFound},
		{"automation", NewAutomationUnavailableError("no chrome"), KindAutomationUnavailable},
		{"wrapped", fmt.Errorf("outer: %w", NewPlaceNotFoundError("x")), KindNotFound},
		{"foreign", stderrors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "API 요청 시간 초과 (30초)",
		MessageOf(NewProviderTimeoutError("serpapi", 30*time.Second, nil)))
	assert.Equal(t, "API 요청 실패: HTTP 502", MessageOf(NewProviderStatusError("serper", 502)))
	assert.Equal(t, "plain", MessageOf(stderrors.New("plain")))
	assert.Empty(t, MessageOf(nil))
}

func TestStandardError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("flow: %w", NewReviewsUnavailableError())
	assert.True(t, stderrors.Is(err, NewReviewsUnavailableError()))
	assert.False(t, stderrors.Is(err, NewPlaceNotFoundError("a")))
}

func TestStandardError_UnwrapKeepsCause(t *testing.T) {
	err := NewProviderRequestError("kakao", context.Canceled)
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Contains(t, err.Message, "context canceled")
}

func TestClassifyTransportError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	timeoutErr := ClassifyTransportError(ctx, "serpapi", 30*time.Second, stderrors.New("read failed"))
	assert.Equal(t, KindTimeout, timeoutErr.Kind)

	reqErr := ClassifyTransportError(context.Background(), "serpapi", 30*time.Second, stderrors.New("connection refused"))
	assert.Equal(t, KindBadResponse, reqErr.Kind)
	assert.Equal(t, "API 요청 실패: connection refused", reqErr.Message)
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewProviderTimeoutError("serper", 10*time.Second, nil))
	require.NotNil(t, bpmn)
	assert.Equal(t, string(ErrCodeProviderTimeout), bpmn.Code)
	assert.Equal(t, 2, bpmn.Retries)
	assert.Equal(t, "TIMEOUT", bpmn.ToErrorVariables()["errorKind"])

	nonRetryable := ConvertToBPMNError(NewInvalidInputError("bad json"))
	assert.Equal(t, 0, nonRetryable.Retries)
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
}
