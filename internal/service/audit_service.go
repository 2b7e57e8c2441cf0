package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compliance-audit-be/internal/dto"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/contract"
	"compliance-audit-be/pkg/events"
	pktNats "compliance-audit-be/pkg/nats"

	"github.com/google/uuid"
)

type IAuditService interface {
	Start(ctx context.Context, req *dto.StartAuditRequest) (*dto.StartAuditResponse, error)
	GetJobState(ctx context.Context, auditId uuid.UUID) (*dto.JobState, error)
	ListFlags(ctx context.Context, req *dto.ListFlagsRequest) ([]*dto.FlagResponse, error)
	Resume(ctx context.Context, auditId uuid.UUID) error
	Cancel(ctx context.Context, auditId uuid.UUID) error
}

type auditService struct {
	audits           contract.AuditRepository
	chunks           contract.ChunkRepository
	flags            contract.FlagRepository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewAuditService(
	audits contract.AuditRepository,
	chunks contract.ChunkRepository,
	flags contract.FlagRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAuditService {
	return &auditService{
		audits:           audits,
		chunks:           chunks,
		flags:            flags,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Start creates the audit row and enqueues the job. The chunk total is
// snapshotted here so progress reporting works before the runner picks
// the job up.
func (s *auditService) Start(ctx context.Context, req *dto.StartAuditRequest) (*dto.StartAuditResponse, error) {
	total, err := s.chunks.CountByDocument(ctx, req.DocumentId)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("document %s has no chunks to audit", req.DocumentId)
	}

	audit := &entity.Audit{
		Id:         uuid.New(),
		DocumentId: req.DocumentId,
		Status:     entity.AuditStatusQueued,
		IsDraft:    req.IsDraft,
		ChunkTotal: int(total),
		CreatedAt:  time.Now(),
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		return nil, err
	}

	if err := s.enqueue(ctx, audit.Id); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		// Notification is auxiliary; a publish failure never fails the request.
		if err := s.eventPublisher.Publish(ctx, events.AuditQueued(audit.Id, audit.DocumentId, audit.IsDraft)); err != nil {
			s.logger.Warn("audit_service", "failed to publish AUDIT_QUEUED event", map[string]interface{}{
				"audit_id": audit.Id.String(),
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("audit_service", "audit queued", map[string]interface{}{
		"audit_id":    audit.Id.String(),
		"document_id": audit.DocumentId.String(),
		"draft":       audit.IsDraft,
		"chunk_total": audit.ChunkTotal,
	})

	return &dto.StartAuditResponse{AuditId: audit.Id}, nil
}

func (s *auditService) GetJobState(ctx context.Context, auditId uuid.UUID) (*dto.JobState, error) {
	audit, err := s.audits.FindById(ctx, auditId)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return nil, nil // Not found
	}

	return &dto.JobState{
		AuditId:        audit.Id,
		DocumentId:     audit.DocumentId,
		Status:         audit.Status,
		IsDraft:        audit.IsDraft,
		ChunkTotal:     audit.ChunkTotal,
		ChunkCompleted: audit.ChunkCompleted,
		ChunkFailed:    audit.ChunkFailed,
		LastChunkId:    audit.LastChunkId,
		StartedAt:      audit.StartedAt,
		CompletedAt:    audit.CompletedAt,
		FailureReason:  audit.FailureReason,
	}, nil
}

func (s *auditService) ListFlags(ctx context.Context, req *dto.ListFlagsRequest) ([]*dto.FlagResponse, error) {
	flags, err := s.flags.ListByAudit(ctx, req.AuditId, contract.FlagFilter{
		Classification:     req.Classification,
		ReferenceSubstring: req.ReferenceSubstring,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.FlagResponse, 0, len(flags))
	for _, flag := range flags {
		citations := make([]dto.CitationResponse, 0, len(flag.Citations))
		for _, c := range flag.Citations {
			citations = append(citations, dto.CitationResponse{
				CitationType: c.CitationType,
				Reference:    c.Reference,
			})
		}
		responses = append(responses, &dto.FlagResponse{
			Id:                 flag.Id,
			ChunkId:            flag.ChunkId,
			FlagType:           flag.FlagType,
			SeverityScore:      flag.SeverityScore,
			Findings:           flag.Findings,
			Gaps:               flag.Gaps,
			Recommendations:    flag.Recommendations,
			Citations:          citations,
			RefinementAttempts: flag.RefinementAttempts,
		})
	}
	return responses, nil
}

// Resume re-enqueues an interrupted or failed audit. Completed chunks
// keep their stored results; the runner restarts at the first chunk
// without one. A completed audit cannot be resumed.
func (s *auditService) Resume(ctx context.Context, auditId uuid.UUID) error {
	audit, err := s.audits.FindById(ctx, auditId)
	if err != nil {
		return err
	}
	if audit == nil {
		return fmt.Errorf("audit %s not found", auditId)
	}
	if audit.Status == entity.AuditStatusCompleted {
		return fmt.Errorf("audit %s already completed", auditId)
	}

	if audit.Terminal() || audit.Status == entity.AuditStatusCancelling {
		applied, err := s.audits.UpdateStatus(ctx, auditId, entity.AuditStatusQueued,
			entity.AuditStatusFailed, entity.AuditStatusCancelled, entity.AuditStatusCancelling)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("audit %s changed state concurrently, not resumed", auditId)
		}
	}

	s.logger.Info("audit_service", "audit resumed", map[string]interface{}{
		"audit_id":      auditId.String(),
		"last_chunk_id": audit.LastChunkId,
	})
	return s.enqueue(ctx, auditId)
}

// Cancel requests cooperative cancellation. The runner observes the
// cancelling status between chunks and finishes the current one first.
func (s *auditService) Cancel(ctx context.Context, auditId uuid.UUID) error {
	applied, err := s.audits.UpdateStatus(ctx, auditId, entity.AuditStatusCancelling,
		entity.AuditStatusQueued, entity.AuditStatusRunning)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("audit %s is not queued or running", auditId)
	}

	s.logger.Info("audit_service", "audit cancellation requested", map[string]interface{}{
		"audit_id": auditId.String(),
	})
	return nil
}

func (s *auditService) enqueue(ctx context.Context, auditId uuid.UUID) error {
	msgPayload := dto.RunAuditMessage{AuditId: auditId}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, msgJson)
}
