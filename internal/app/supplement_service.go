package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/supplement"
	"supplement_tracker/internal/domain/user"
	idb "supplement_tracker/internal/infra/database"
)

// Custom application-level errors for supplement management
var ErrNotOwner = errors.New("supplement belongs to another user")
var ErrInvalidCycle = errors.New("cycle needs on > 0 and off >= 0")
var ErrInvalidSupplement = errors.New("invalid supplement")

// SupplementInput carries user-entered supplement fields.
type SupplementInput struct {
	Name        string
	StartDate   string // YYYY-MM-DD; empty leaves the start date unset
	DosesPerDay int
	Servings    *float64
	Cycle       *schedule.Cycle
	Dosage      string
	Times       []string
	Notes       string
}

type SupplementService struct {
	supplementRepo supplement.Repository
	userRepo       user.Repository
}

func NewSupplementService(sr supplement.Repository, ur user.Repository) *SupplementService {
	return &SupplementService{supplementRepo: sr, userRepo: ur}
}

// apply validates in and copies it onto s.
func (in SupplementInput) apply(s *supplement.Supplement) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSupplement)
	}
	if in.DosesPerDay < 0 || in.DosesPerDay > schedule.MaxDosesPerDay {
		return fmt.Errorf("%w: doses per day must be between 0 and %d", ErrInvalidSupplement, schedule.MaxDosesPerDay)
	}
	if in.Servings != nil && !(*in.Servings >= 0 && *in.Servings <= schedule.MaxServings) {
		return fmt.Errorf("%w: servings must be between 0 and %d", ErrInvalidSupplement, schedule.MaxServings)
	}
	if in.Cycle != nil && !in.Cycle.Valid() {
		return ErrInvalidCycle
	}

	var start = s.StartDate
	if strings.TrimSpace(in.StartDate) != "" {
		d, err := schedule.ParseDay(in.StartDate)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSupplement, err)
		}
		start = d
	}

	s.Name = name
	s.StartDate = start
	s.DosesPerDay = in.DosesPerDay
	s.Servings = in.Servings
	s.Cycle = in.Cycle
	s.Dosage = strings.TrimSpace(in.Dosage)
	s.Times = in.Times
	s.Notes = in.Notes
	return nil
}

// Add creates a supplement for userID.
func (s *SupplementService) Add(ctx context.Context, userID int64, in SupplementInput) (*supplement.Supplement, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	sp := &supplement.Supplement{UserID: userID}
	if err := in.apply(sp); err != nil {
		return nil, err
	}
	if err := s.supplementRepo.Create(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to create supplement in repository: %w", err)
	}
	return sp, nil
}

// Update replaces the editable fields of a supplement owned by userID.
// Changing the start date re-anchors the whole cycle.
func (s *SupplementService) Update(ctx context.Context, userID, supplementID int64, in SupplementInput) (*supplement.Supplement, error) {
	sp, err := s.owned(ctx, userID, supplementID)
	if err != nil {
		return nil, err
	}
	if err := in.apply(sp); err != nil {
		return nil, err
	}
	if err := s.supplementRepo.Update(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to update supplement in repository: %w", err)
	}
	return sp, nil
}

// Delete removes a supplement owned by userID.
func (s *SupplementService) Delete(ctx context.Context, userID, supplementID int64) error {
	if _, err := s.owned(ctx, userID, supplementID); err != nil {
		return err
	}
	if err := s.supplementRepo.Delete(ctx, supplementID); err != nil {
		return fmt.Errorf("failed to delete supplement in repository: %w", err)
	}
	return nil
}

func (s *SupplementService) List(ctx context.Context, userID int64) ([]*supplement.Supplement, error) {
	return s.supplementRepo.ListByUser(ctx, userID)
}

func (s *SupplementService) owned(ctx context.Context, userID, supplementID int64) (*supplement.Supplement, error) {
	sp, err := s.supplementRepo.GetByID(ctx, supplementID)
	if err != nil {
		if errors.Is(err, idb.ErrSupplementNotFound) {
			return nil, idb.ErrSupplementNotFound // Propagate specific error
		}
		return nil, fmt.Errorf("failed to get supplement: %w", err)
	}
	if sp.UserID != userID {
		return nil, ErrNotOwner
	}
	return sp, nil
}
