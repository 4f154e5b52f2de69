package service

import (
	"context"
	"fmt"

	"github.com/pkordes/belatedly/internal/domain"
	"github.com/pkordes/belatedly/internal/repo"
)

// JournalService reads the sync journal.
type JournalService struct {
	repo repo.JournalRepo
}

// NewJournalService constructs a JournalService backed by the provided repo.
func NewJournalService(r repo.JournalRepo) *JournalService {
	return &JournalService{repo: r}
}

// List returns one page of journal entries, newest first, and the total.
func (s *JournalService) List(ctx context.Context, p domain.PaginationParams) ([]domain.JournalEntry, int64, error) {
	entries, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.JournalService.List: %w", err)
	}
	return entries, total, nil
}
