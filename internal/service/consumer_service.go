package service

import (
	"context"
	"encoding/json"

	"compliance-audit-be/internal/dto"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/pkg/events"
	pktNats "compliance-audit-be/pkg/nats"
	"compliance-audit-be/pkg/runner"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	runner         *runner.Runner
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	auditRunner *runner.Runner,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		runner:         auditRunner,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.RunAuditMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal job message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("consumer", "processing audit job", map[string]interface{}{
		"audit_id": payload.AuditId.String(),
	})

	result, err := cs.runner.Run(ctx, payload.AuditId)
	if err != nil {
		cs.logger.Error("consumer", "audit run errored", map[string]interface{}{
			"audit_id": payload.AuditId.String(),
			"error":    err.Error(),
		})
		msg.Nack() // Nack for retriable errors, the runner resumes at its checkpoint
		return
	}

	cs.publishLifecycle(ctx, payload, result)
	msg.Ack()
}

// lifecycleEvent maps a finished run onto its lifecycle event. Returns
// nil for non-terminal outcomes (a draft run pausing with chunks
// remaining).
func lifecycleEvent(auditId uuid.UUID, result *runner.RunResult) events.Event {
	switch result.Status {
	case entity.AuditStatusCompleted:
		return events.AuditCompleted(auditId, result.Processed-result.Failed, result.Failed)
	case entity.AuditStatusFailed:
		return events.AuditFailed(auditId, result.FailureReason)
	case entity.AuditStatusCancelled:
		return events.AuditCancelled(auditId, result.Remaining)
	default:
		return nil
	}
}

func (cs *consumerService) publishLifecycle(ctx context.Context, payload dto.RunAuditMessage, result *runner.RunResult) {
	if cs.eventPublisher == nil {
		return
	}

	evt := lifecycleEvent(payload.AuditId, result)
	if evt == nil {
		return
	}

	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("consumer", "failed to publish lifecycle event", map[string]interface{}{
			"audit_id": payload.AuditId.String(),
			"event":    evt.EventType(),
			"error":    err.Error(),
		})
	}
}
