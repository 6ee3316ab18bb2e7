package services

import (
	"context"

	"storefront/internal/jobs"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContactService interface {
	Submit(ctx context.Context, contact *models.Contact) error
}

type contactService struct {
	contactRepo repositories.ContactRepository
	queue       jobs.Enqueuer
	logger      *zap.Logger
	inbox       string
}

func NewContactService(contactRepo repositories.ContactRepository, queue jobs.Enqueuer, logger *zap.Logger, inbox string) ContactService {
	return &contactService{contactRepo: contactRepo, queue: queue, logger: logger, inbox: inbox}
}

// Submit persists the message, then forwards it to the shop inbox
func (s *contactService) Submit(ctx context.Context, contact *models.Contact) error {
	contact.ID = uuid.New()
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return err
	}

	task, err := jobs.NewContactEmailTask(jobs.ContactEmailPayload{
		To:      s.inbox,
		Name:    contact.Name,
		Email:   contact.Email,
		Subject: contact.Subject,
		Message: contact.Message,
	})
	if err == nil {
		err = jobs.Enqueue(ctx, s.queue, task)
	}
	if err != nil {
		s.logger.Error("contact email not queued", zap.String("contact_id", contact.ID.String()), zap.Error(err))
	}
	return nil
}
