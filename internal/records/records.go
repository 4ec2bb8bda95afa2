// Package records answers pipeline-readiness questions about a user:
// which stage of the hiring workflow their record has reached, and what
// the record currently holds. It reads only; mutation belongs to the
// pipeline.
package records

import (
	"context"
	"database/sql"
	"fmt"

	"hirebot-engine/internal/store"
)

type Service struct {
	db *sql.DB
}

func New(db *store.DB) *Service {
	return &Service{db: db.Pool}
}

func (s *Service) ListUsers(ctx context.Context) ([]string, error) {
	return store.ListUserIDs(ctx, s.db)
}

func (s *Service) UserInRecords(ctx context.Context, chatID string) (bool, error) {
	_, ok, err := store.GetUser(ctx, s.db, chatID)
	return ok, err
}

func (s *Service) VacancyDescriptionReceived(ctx context.Context, chatID string) (bool, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil || !ok {
		return false, err
	}
	return u.VacancyDescription != "", nil
}

func (s *Service) SourcingCriteriaReceived(ctx context.Context, chatID string) (bool, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil || !ok {
		return false, err
	}
	return u.SourcingCriteria != "", nil
}

func (s *Service) VacancySelected(ctx context.Context, chatID string) (bool, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil || !ok {
		return false, err
	}
	return u.VacancySelected, nil
}

// EnoughDataForAnalysis holds once the record carries a description,
// derived criteria and a selected vacancy. Gates every resume-stage
// action.
func (s *Service) EnoughDataForAnalysis(ctx context.Context, chatID string) (bool, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil || !ok {
		return false, err
	}
	return u.VacancyDescription != "" && u.SourcingCriteria != "" && u.VacancySelected && u.TargetVacancyID != "", nil
}

func (s *Service) TargetVacancyID(ctx context.Context, chatID string) (string, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("user %s not in records", chatID)
	}
	if u.TargetVacancyID == "" {
		return "", fmt.Errorf("user %s has no target vacancy", chatID)
	}
	return u.TargetVacancyID, nil
}

func (s *Service) SourcingCriteria(ctx context.Context, chatID string) (string, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("user %s not in records", chatID)
	}
	return u.SourcingCriteria, nil
}

// Readiness is the stage-by-stage digest behind the user-status command.
type Readiness struct {
	ChatID                     string
	VacancyDescriptionReceived bool
	SourcingCriteriaReceived   bool
	VacancySelected            bool
	TargetVacancyID            string
	EnoughForAnalysis          bool
}

func (s *Service) Readiness(ctx context.Context, chatID string) (Readiness, error) {
	u, ok, err := s.get(ctx, chatID)
	if err != nil {
		return Readiness{}, err
	}
	if !ok {
		return Readiness{}, fmt.Errorf("user %s not in records", chatID)
	}
	r := Readiness{
		ChatID:                     u.ChatID,
		VacancyDescriptionReceived: u.VacancyDescription != "",
		SourcingCriteriaReceived:   u.SourcingCriteria != "",
		VacancySelected:            u.VacancySelected,
		TargetVacancyID:            u.TargetVacancyID,
	}
	r.EnoughForAnalysis = r.VacancyDescriptionReceived && r.SourcingCriteriaReceived && r.VacancySelected && u.TargetVacancyID != ""
	return r, nil
}

func (s *Service) get(ctx context.Context, chatID string) (store.UserRecord, bool, error) {
	return store.GetUser(ctx, s.db, chatID)
}
