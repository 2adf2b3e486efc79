package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/pkg/jobs"
	"github.com/noah-isme/placement-api/pkg/messaging"
)

// ApplicationEvent is published when an application is created or changes status.
type ApplicationEvent struct {
	ApplicationID string                   `json:"applicationId"`
	PostingID     string                   `json:"postingId"`
	StudentID     string                   `json:"studentId"`
	Status        models.ApplicationStatus `json:"status"`
	Previous      models.ApplicationStatus `json:"previousStatus,omitempty"`
	Version       int                      `json:"version"`
	Actor         models.Actor             `json:"actor"`
	OccurredAt    time.Time                `json:"occurredAt"`
}

// PlacementEvent is published when a final placement is recorded or removed.
type PlacementEvent struct {
	StudentID  string           `json:"studentId"`
	Company    string           `json:"company,omitempty"`
	Position   string           `json:"position,omitempty"`
	OfferType  models.OfferType `json:"offerType,omitempty"`
	Actor      models.Actor     `json:"actor"`
	OccurredAt time.Time        `json:"occurredAt"`
}

type eventQueue interface {
	Enqueue(job jobs.Job) error
}

// EventService hands domain events to a background queue which publishes
// them to NATS. Publishing never fails the originating request.
type EventService struct {
	publisher messaging.Publisher
	queue     eventQueue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventService wires the publisher. Call AttachQueue to publish asynchronously;
// without a queue events are published inline.
func NewEventService(publisher messaging.Publisher, metrics *MetricsService, logger *zap.Logger) *EventService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{publisher: publisher, metrics: metrics, logger: logger}
}

// AttachQueue routes events through queue.
func (s *EventService) AttachQueue(queue eventQueue) {
	if s != nil {
		s.queue = queue
	}
}

// HandleJob is the queue handler that performs the actual publish.
func (s *EventService) HandleJob(ctx context.Context, job jobs.Job) error {
	if err := s.publisher.Publish(ctx, job.Type, job.Payload); err != nil {
		s.metrics.RecordEvent(job.Type, "failed")
		return fmt.Errorf("publish %s: %w", job.Type, err)
	}
	s.metrics.RecordEvent(job.Type, "published")
	return nil
}

// GiveUp records an event dropped after exhausting retries.
func (s *EventService) GiveUp(job jobs.Job, err error) {
	s.metrics.RecordEvent(job.Type, "dropped")
	s.logger.Error("event dropped", zap.String("subject", job.Type), zap.String("job_id", job.ID), zap.Error(err))
}

// ApplicationCreated emits placement.application.created.
func (s *EventService) ApplicationCreated(ctx context.Context, app *models.Application, actor models.Actor) {
	if app == nil {
		return
	}
	s.emit(ctx, messaging.SubjectApplicationCreated, ApplicationEvent{
		ApplicationID: app.ID,
		PostingID:     app.PostingID,
		StudentID:     app.StudentID,
		Status:        app.CurrentStatus,
		Version:       app.Version,
		Actor:         actor,
		OccurredAt:    app.AppliedAt,
	})
}

// StatusChanged emits placement.application.status_changed.
func (s *EventService) StatusChanged(ctx context.Context, app *models.Application, previous models.ApplicationStatus, actor models.Actor) {
	if app == nil {
		return
	}
	s.emit(ctx, messaging.SubjectApplicationStatusChanged, ApplicationEvent{
		ApplicationID: app.ID,
		PostingID:     app.PostingID,
		StudentID:     app.StudentID,
		Status:        app.CurrentStatus,
		Previous:      previous,
		Version:       app.Version,
		Actor:         actor,
		OccurredAt:    app.UpdatedAt,
	})
}

// PlacementRecorded emits placement.final_placement.recorded.
func (s *EventService) PlacementRecorded(ctx context.Context, placement *models.FinalPlacement, actor models.Actor) {
	if placement == nil {
		return
	}
	s.emit(ctx, messaging.SubjectFinalPlacementRecorded, PlacementEvent{
		StudentID:  placement.StudentID,
		Company:    placement.Company,
		Position:   placement.Position,
		OfferType:  placement.OfferType,
		Actor:      actor,
		OccurredAt: placement.UpdatedAt,
	})
}

// PlacementRemoved emits placement.final_placement.removed.
func (s *EventService) PlacementRemoved(ctx context.Context, studentID string, actor models.Actor, at time.Time) {
	s.emit(ctx, messaging.SubjectFinalPlacementRemoved, PlacementEvent{
		StudentID:  studentID,
		Actor:      actor,
		OccurredAt: at,
	})
}

func (s *EventService) emit(ctx context.Context, subject string, payload interface{}) {
	if s == nil {
		return
	}
	if s.queue == nil {
		if err := s.HandleJob(ctx, jobs.Job{Type: subject, Payload: payload}); err != nil {
			s.logger.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
		}
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: subject, Payload: payload}); err != nil {
		s.metrics.RecordEvent(subject, "dropped")
		s.logger.Warn("event not queued", zap.String("subject", subject), zap.Error(err))
	}
}
