package core

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/notamil/notamil-api/internal/store"
)

// gradedEssay is an essay whose latest correction holds a parseable grade.
// Analytics and achievements both work over this projection.
type gradedEssay struct {
	essay      store.Essay
	correction store.Correction
	grade      *Grade
}

// loadGradedEssays filters a user's essays down to the graded ones, oldest
// first. Essays without a correction, and corrections whose stored payload no
// longer parses, are skipped rather than surfaced as errors.
func loadGradedEssays(db *store.SQLiteStore, userID int64) ([]gradedEssay, error) {
	essays, err := db.ListEssaysWithLatestCorrection(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load essays: %w", err)
	}

	var graded []gradedEssay
	for _, ewc := range essays {
		if ewc.Latest == nil {
			continue
		}
		grade, err := ParseGrade(ewc.Latest.Grade)
		if err != nil {
			log.Printf("Skipping correction %s with unparseable stored grade: %v", ewc.Latest.ID, err)
			continue
		}
		graded = append(graded, gradedEssay{essay: ewc.Essay, correction: *ewc.Latest, grade: grade})
	}
	return graded, nil
}

type ScorePoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Total int    `json:"total"`
}

type RecentEssay struct {
	EssayID  string    `json:"essay_id"`
	Topic    string    `json:"topic"`
	Total    int       `json:"total"`
	GradedAt time.Time `json:"graded_at"`
}

type AnalyticsSnapshot struct {
	GradedEssays       int            `json:"graded_essays"`
	AverageTotal       int            `json:"average_total"`
	CompetencyAverages map[string]int `json:"competency_averages"`
	ScoreSeries        []ScorePoint   `json:"score_series"`
	Recent             []RecentEssay  `json:"recent"`
	TotalWords         int            `json:"total_words"`
}

// AnalyticsService computes dashboard statistics from a user's graded essays.
type AnalyticsService struct {
	dbStore *store.SQLiteStore
}

func NewAnalyticsService(db *store.SQLiteStore) *AnalyticsService {
	return &AnalyticsService{dbStore: db}
}

// Analyze builds the aggregate snapshot for one user. A user with no graded
// essays gets an all-zero snapshot; the only error path is storage access.
func (s *AnalyticsService) Analyze(userID int64) (*AnalyticsSnapshot, error) {
	graded, err := loadGradedEssays(s.dbStore, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &AnalyticsSnapshot{
		GradedEssays:       len(graded),
		CompetencyAverages: make(map[string]int, len(CompetencyKeys)),
		ScoreSeries:        []ScorePoint{},
		Recent:             []RecentEssay{},
	}
	for _, key := range CompetencyKeys {
		snapshot.CompetencyAverages[key] = 0
	}

	if len(graded) == 0 {
		return snapshot, nil
	}

	totalSum := 0
	compSums := make(map[string]int, len(CompetencyKeys))
	for _, ge := range graded {
		totalSum += ge.grade.Total
		for _, key := range CompetencyKeys {
			compSums[key] += ge.grade.Nota(key)
		}
		snapshot.TotalWords += len(strings.Fields(ge.essay.Body))
		snapshot.ScoreSeries = append(snapshot.ScoreSeries, ScorePoint{
			Date:  ge.essay.CreatedAt.Format("2006-01-02"),
			Total: ge.grade.Total,
		})
	}

	snapshot.AverageTotal = roundedMean(totalSum, len(graded))
	for _, key := range CompetencyKeys {
		snapshot.CompetencyAverages[key] = roundedMean(compSums[key], len(graded))
	}

	// Graded essays arrive oldest first; the recent list reads newest first.
	for i := len(graded) - 1; i >= 0 && len(snapshot.Recent) < 3; i-- {
		ge := graded[i]
		snapshot.Recent = append(snapshot.Recent, RecentEssay{
			EssayID:  ge.essay.ID,
			Topic:    ge.essay.Topic,
			Total:    ge.grade.Total,
			GradedAt: ge.correction.CreatedAt,
		})
	}

	return snapshot, nil
}

func roundedMean(sum, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}
