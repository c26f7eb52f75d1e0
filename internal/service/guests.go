package service

import (
	"context"

	"innkeeper/internal/domain"
	"innkeeper/internal/observability"
)

type GuestService struct {
	repo     domain.GuestRepository
	notifier Notifier
	logger   observability.Logger
}

func NewGuestService(repo domain.GuestRepository, notifier Notifier, logger observability.Logger) *GuestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GuestService{repo: repo, notifier: notifier, logger: logger}
}

type RegisterGuestInput struct {
	Name     string
	Document string
	Email    string
	Phone    string
}

func (s *GuestService) Register(ctx context.Context, subject string, in RegisterGuestInput) (*domain.Guest, error) {
	g, err := domain.NewGuest(in.Name, in.Document, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, g); err != nil {
		return nil, err
	}
	s.logger.WithField("guest_id", g.ID).Info("guest registered")
	s.notifier.GuestRegistered(subject, g)
	return g, nil
}

func (s *GuestService) List(ctx context.Context) ([]domain.Guest, error) {
	return s.repo.FindAll(ctx)
}

func (s *GuestService) FindByDocument(ctx context.Context, document string) (*domain.Guest, error) {
	return s.repo.FindByDocument(ctx, document)
}
