package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/notamil/notamil-api/internal/store"
)

// maxRawLogBytes caps how much raw model output lands in the log when the
// response cannot be parsed.
const maxRawLogBytes = 1024

// CorrectionService runs the submission pipeline and the ownership-checked
// reads over essays and their corrections.
type CorrectionService struct {
	dbStore *store.SQLiteStore
	grader  Grader
}

func NewCorrectionService(db *store.SQLiteStore, grader Grader) *CorrectionService {
	return &CorrectionService{
		dbStore: db,
		grader:  grader,
	}
}

// SubmissionResult is the combined view returned after a graded submission.
type SubmissionResult struct {
	Essay      *store.Essay      `json:"essay"`
	Correction *store.Correction `json:"correction"`
}

// Submit grades one essay. The essay row is created (or reused, for an
// identical resubmission) before the external call, so it survives grading
// failures; the correction row is only written once the model response has
// been sanitized and validated.
func (s *CorrectionService) Submit(ctx context.Context, userID int64, topic, text string) (*SubmissionResult, error) {
	if topic == "" {
		return nil, NewValidationError("topic", "cannot be empty")
	}
	if text == "" {
		return nil, NewValidationError("text", "cannot be empty")
	}

	essay, err := s.dbStore.FindOrCreateEssay(userID, topic, text)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create essay: %w", err)
	}

	raw, err := s.grader.Grade(ctx, topic, text)
	if err != nil {
		return nil, NewUpstreamError(err, errors.Is(err, ErrContentBlocked))
	}

	grade, err := s.parseResponse(essay.ID, raw)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(grade)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grade: %w", err)
	}

	correction, err := s.dbStore.CreateCorrection(essay.ID, grade.Total, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to store correction: %w", err)
	}

	return &SubmissionResult{Essay: essay, Correction: correction}, nil
}

// parseResponse runs the raw model output through sanitization and schema
// validation, logging the (truncated) raw text when either fails.
func (s *CorrectionService) parseResponse(essayID, raw string) (*Grade, error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		log.Printf("Unparseable grading response for essay %s: %s", essayID, truncate(raw, maxRawLogBytes))
		return nil, NewGradeFormatError(err, raw)
	}

	grade, err := ParseGrade(data)
	if err != nil {
		log.Printf("Invalid grade payload for essay %s (%v): %s", essayID, err, truncate(raw, maxRawLogBytes))
		return nil, NewGradeFormatError(err, raw)
	}
	return grade, nil
}

// History returns the user's essays with their latest correction, newest
// first. Essays that were never graded are included with a nil correction.
func (s *CorrectionService) History(userID int64) ([]store.EssayWithCorrection, error) {
	essays, err := s.dbStore.ListEssaysWithLatestCorrection(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	// Store order is oldest first; history reads newest first.
	for i, j := 0, len(essays)-1; i < j; i, j = i+1, j-1 {
		essays[i], essays[j] = essays[j], essays[i]
	}
	return essays, nil
}

// EssayDetail returns one essay with every correction, newest first.
// Ownership is enforced by the user-id filter; an essay belonging to someone
// else is indistinguishable from a missing one.
func (s *CorrectionService) EssayDetail(essayID string, userID int64) (*store.Essay, []store.Correction, error) {
	essay, err := s.dbStore.GetEssayByID(essayID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get essay: %w", err)
	}
	if essay == nil {
		return nil, nil, ErrNotFound
	}

	corrections, err := s.dbStore.GetCorrectionsByEssayID(essayID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get corrections: %w", err)
	}
	return essay, corrections, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
