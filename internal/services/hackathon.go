package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hackinvite/internal/domain"
)

type hackathonService struct {
	hackathonRepo  domain.HackathonRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

// NewHackathonService creates a HackathonService with the given repositories.
func NewHackathonService(
	hackathonRepo domain.HackathonRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.HackathonService {
	return &hackathonService{
		hackathonRepo:  hackathonRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func (s *hackathonService) CreateHackathon(ctx context.Context, h *domain.Hackathon) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if h.CreatorID == "" {
		return fmt.Errorf("hackathon creator is required")
	}
	creator, err := s.userRepo.GetByID(ctx, h.CreatorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get creator: %w", err)
	}
	// Only organizer accounts may run hackathons.
	if !creator.IsOrganizer {
		return domain.ErrForbidden
	}
	if h.MinParticipants < 0 || (h.MaxParticipants > 0 && h.MaxParticipants < h.MinParticipants) {
		return domain.ErrInvalidInput
	}

	h.CreatedAt = time.Now()
	h.UpdatedAt = time.Now()
	return s.hackathonRepo.Create(ctx, h)
}

func (s *hackathonService) GetHackathon(ctx context.Context, hackathonID string) (*domain.HackathonWithParticipants, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	h, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get hackathon: %w", err)
	}
	participants, err := s.hackathonRepo.ListParticipants(ctx, hackathonID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if participants == nil {
		participants = []*domain.User{}
	}
	return &domain.HackathonWithParticipants{Hackathon: h, Participants: participants}, nil
}

func (s *hackathonService) ListHackathons(ctx context.Context) ([]*domain.Hackathon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.hackathonRepo.List(ctx)
}

func (s *hackathonService) ListMyHackathons(ctx context.Context, userID string) ([]*domain.Hackathon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.hackathonRepo.ListByMember(ctx, userID)
}

func (s *hackathonService) UpdateHackathon(ctx context.Context, hackathonID, callerID string, name, description *string, minParticipants, maxParticipants *int, coverURL *string) (*domain.Hackathon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	h, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get hackathon: %w", err)
	}
	if h.CreatorID != callerID {
		return nil, domain.ErrForbidden
	}
	updated, err := s.hackathonRepo.Update(ctx, hackathonID, name, description, minParticipants, maxParticipants, coverURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update hackathon: %w", err)
	}
	return updated, nil
}

func (s *hackathonService) RemoveParticipant(ctx context.Context, hackathonID, callerID, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	h, err := s.hackathonRepo.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get hackathon: %w", err)
	}
	if h.CreatorID != callerID {
		return domain.ErrForbidden
	}
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get user by email: %w", err)
	}
	if user.ID == h.CreatorID {
		return domain.ErrInvalidInput
	}
	if err := s.hackathonRepo.RemoveParticipant(ctx, hackathonID, user.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}
