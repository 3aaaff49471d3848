package core

import "github.com/notamil/notamil-api/internal/store"

// Achievement is one entry of the fixed catalog. Unlocked is recomputed from
// the graded-essay history on every call; no unlock events are stored.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type achievementDef struct {
	id          string
	title       string
	description string
	predicate   func(graded []gradedEssay) bool
}

var achievementCatalog = []achievementDef{
	{
		id:          "first_essay",
		title:       "Primeiro passo",
		description: "Tenha sua primeira redação corrigida",
		predicate: func(graded []gradedEssay) bool {
			return len(graded) >= 1
		},
	},
	{
		id:          "five_essays",
		title:       "Ritmo de escrita",
		description: "Tenha cinco redações corrigidas",
		predicate: func(graded []gradedEssay) bool {
			return len(graded) >= 5
		},
	},
	{
		id:          "near_perfect",
		title:       "Quase nota mil",
		description: "Alcance nota total 900 ou mais em uma redação",
		predicate: func(graded []gradedEssay) bool {
			for _, ge := range graded {
				if ge.grade.Total >= 900 {
					return true
				}
			}
			return false
		},
	},
	{
		id:          "c5_master",
		title:       "Proposta impecável",
		description: "Alcance nota máxima na competência 5",
		predicate: func(graded []gradedEssay) bool {
			for _, ge := range graded {
				if ge.grade.Nota("c5") == MaxCompetencyScore {
					return true
				}
			}
			return false
		},
	},
}

// AchievementService evaluates the fixed achievement catalog against a user's
// graded essays.
type AchievementService struct {
	dbStore *store.SQLiteStore
}

func NewAchievementService(db *store.SQLiteStore) *AchievementService {
	return &AchievementService{dbStore: db}
}

// Evaluate returns the full catalog, locked entries included, with each
// unlocked flag derived from the current graded-essay set.
func (s *AchievementService) Evaluate(userID int64) ([]Achievement, error) {
	graded, err := loadGradedEssays(s.dbStore, userID)
	if err != nil {
		return nil, err
	}

	achievements := make([]Achievement, 0, len(achievementCatalog))
	for _, def := range achievementCatalog {
		achievements = append(achievements, Achievement{
			ID:          def.id,
			Title:       def.title,
			Description: def.description,
			Unlocked:    def.predicate(graded),
		})
	}
	return achievements, nil
}
