package domain

import (
	"context"
	"time"
)

// Hackathon represents a hackathon run by an organizer.
// swagger:model Hackathon
type Hackathon struct {
	ID              string    `json:"id"`
	CreatorID       string    `json:"creator_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	MinParticipants int       `json:"min_participants"`
	MaxParticipants int       `json:"max_participants"`
	CoverURL        string    `json:"cover_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewHackathon returns a new Hackathon with the given fields. ID is typically set by the repository on create.
func NewHackathon(creatorID, name, description string, minParticipants, maxParticipants int, createdAt, updatedAt time.Time) *Hackathon {
	return &Hackathon{
		CreatorID:       creatorID,
		Name:            name,
		Description:     description,
		MinParticipants: minParticipants,
		MaxParticipants: maxParticipants,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// HackathonRepository defines the interface for hackathon storage
type HackathonRepository interface {
	Create(ctx context.Context, h *Hackathon) error
	GetByID(ctx context.Context, id string) (*Hackathon, error)
	List(ctx context.Context) ([]*Hackathon, error)
	// ListByMember returns hackathons the user created or participates in.
	ListByMember(ctx context.Context, userID string) ([]*Hackathon, error)
	Update(ctx context.Context, id string, name, description *string, minParticipants, maxParticipants *int, coverURL *string) (*Hackathon, error)
	AddParticipant(ctx context.Context, hackathonID, userID string) error
	RemoveParticipant(ctx context.Context, hackathonID, userID string) error
	ListParticipants(ctx context.Context, hackathonID string) ([]*User, error)
	IsParticipant(ctx context.Context, hackathonID, userID string) (bool, error)
}

// HackathonWithParticipants bundles a hackathon with its confirmed participants.
type HackathonWithParticipants struct {
	Hackathon    *Hackathon `json:"hackathon"`
	Participants []*User    `json:"participants"`
}

// HackathonService defines the business logic for the hackathon CRUD surface.
type HackathonService interface {
	CreateHackathon(ctx context.Context, h *Hackathon) error
	GetHackathon(ctx context.Context, hackathonID string) (*HackathonWithParticipants, error)
	ListHackathons(ctx context.Context) ([]*Hackathon, error)
	ListMyHackathons(ctx context.Context, userID string) ([]*Hackathon, error)
	UpdateHackathon(ctx context.Context, hackathonID, callerID string, name, description *string, minParticipants, maxParticipants *int, coverURL *string) (*Hackathon, error)
	// RemoveParticipant removes a confirmed participant. The creator cannot be removed.
	RemoveParticipant(ctx context.Context, hackathonID, callerID, email string) error
}
