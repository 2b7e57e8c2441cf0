package service

import (
	"testing"

	"compliance-audit-be/internal/entity"
	"compliance-audit-be/pkg/runner"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleEventCarriesFailureReason(t *testing.T) {
	auditId := uuid.New()
	reason := "chunk failure rate 6.7% exceeded threshold 5.0% (10 of 150 chunks failed)"

	evt := lifecycleEvent(auditId, &runner.RunResult{
		Status:        entity.AuditStatusFailed,
		Failed:        10,
		FailureReason: reason,
	})

	require.NotNil(t, evt)
	assert.Equal(t, "AUDIT_FAILED", evt.EventType())
	assert.Equal(t, reason, evt.Payload()["reason"])
}

func TestLifecycleEventCompletedCounts(t *testing.T) {
	auditId := uuid.New()

	evt := lifecycleEvent(auditId, &runner.RunResult{
		Status:    entity.AuditStatusCompleted,
		Processed: 12,
		Failed:    2,
	})

	require.NotNil(t, evt)
	assert.Equal(t, "AUDIT_COMPLETED", evt.EventType())
	assert.Equal(t, 10, evt.Payload()["chunk_completed"])
	assert.Equal(t, 2, evt.Payload()["chunk_failed"])
}

func TestLifecycleEventCancelledRemaining(t *testing.T) {
	evt := lifecycleEvent(uuid.New(), &runner.RunResult{
		Status:    entity.AuditStatusCancelled,
		Remaining: 7,
	})

	require.NotNil(t, evt)
	assert.Equal(t, "AUDIT_CANCELLED", evt.EventType())
	assert.Equal(t, int64(7), evt.Payload()["chunks_remaining"])
}

func TestLifecycleEventNoneForPausedDraft(t *testing.T) {
	evt := lifecycleEvent(uuid.New(), &runner.RunResult{
		Status:    entity.AuditStatusRunning,
		Remaining: 5,
	})
	assert.Nil(t, evt)
}
