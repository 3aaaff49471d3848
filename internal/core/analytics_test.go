package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notamil/notamil-api/internal/store"
)

// seedGradedEssay inserts an essay with one correction holding the given notas.
func seedGradedEssay(t *testing.T, dbStore *store.SQLiteStore, userID int64, topic, body string, notas [5]int) *store.Essay {
	t.Helper()
	essay, err := dbStore.FindOrCreateEssay(userID, topic, body)
	require.NoError(t, err)

	total := 0
	for _, n := range notas {
		total += n
	}
	_, err = dbStore.CreateCorrection(essay.ID, total, json.RawMessage(gradeJSON(notas, total)))
	require.NoError(t, err)
	return essay
}

func TestAnalyzeEmptyUser(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewAnalyticsService(dbStore)

	snapshot, err := svc.Analyze(42)
	require.NoError(t, err)
	require.Equal(t, 0, snapshot.GradedEssays)
	require.Equal(t, 0, snapshot.AverageTotal)
	require.Equal(t, 0, snapshot.TotalWords)
	require.Empty(t, snapshot.ScoreSeries)
	require.Empty(t, snapshot.Recent)
	for _, key := range CompetencyKeys {
		require.Equal(t, 0, snapshot.CompetencyAverages[key])
	}
}

func TestAnalyzeAverages(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewAnalyticsService(dbStore)

	seedGradedEssay(t, dbStore, 1, "Tema A", "um dois três", [5]int{160, 160, 160, 160, 200}) // 840
	seedGradedEssay(t, dbStore, 1, "Tema B", "quatro cinco", [5]int{120, 120, 120, 120, 120}) // 600

	snapshot, err := svc.Analyze(1)
	require.NoError(t, err)
	require.Equal(t, 2, snapshot.GradedEssays)
	require.Equal(t, 720, snapshot.AverageTotal)
	require.Equal(t, 140, snapshot.CompetencyAverages["c1"])
	require.Equal(t, 160, snapshot.CompetencyAverages["c5"])
	require.Equal(t, 5, snapshot.TotalWords)

	require.Len(t, snapshot.ScoreSeries, 2)
	require.Equal(t, 840, snapshot.ScoreSeries[0].Total) // oldest first
	require.Equal(t, 600, snapshot.ScoreSeries[1].Total)
}

func TestAnalyzeRounding(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewAnalyticsService(dbStore)

	// Totals 840, 600, 600 average to 680; c5 notas 200, 120, 120 average
	// to 146.67, rounded to 147.
	seedGradedEssay(t, dbStore, 1, "A", "a", [5]int{160, 160, 160, 160, 200})
	seedGradedEssay(t, dbStore, 1, "B", "b", [5]int{120, 120, 120, 120, 120})
	seedGradedEssay(t, dbStore, 1, "C", "c", [5]int{120, 120, 120, 120, 120})

	snapshot, err := svc.Analyze(1)
	require.NoError(t, err)
	require.Equal(t, 680, snapshot.AverageTotal)
	require.Equal(t, 147, snapshot.CompetencyAverages["c5"])
}

func TestAnalyzeRecentThree(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewAnalyticsService(dbStore)

	topics := []string{"A", "B", "C", "D"}
	for _, topic := range topics {
		seedGradedEssay(t, dbStore, 1, topic, "texto", [5]int{120, 120, 120, 120, 120})
	}

	snapshot, err := svc.Analyze(1)
	require.NoError(t, err)
	require.Len(t, snapshot.Recent, 3)
	require.Equal(t, "D", snapshot.Recent[0].Topic)
	require.Equal(t, "C", snapshot.Recent[1].Topic)
	require.Equal(t, "B", snapshot.Recent[2].Topic)
}

func TestAnalyzeSkipsUngradedAndCorruptRows(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewAnalyticsService(dbStore)

	seedGradedEssay(t, dbStore, 1, "válida", "um dois", [5]int{160, 160, 160, 160, 200})

	// Essay with no correction at all.
	_, err := dbStore.FindOrCreateEssay(1, "nunca corrigida", "texto solto")
	require.NoError(t, err)

	// Essay whose stored payload is not a valid grade.
	broken, err := dbStore.FindOrCreateEssay(1, "quebrada", "mais texto aqui")
	require.NoError(t, err)
	_, err = dbStore.CreateCorrection(broken.ID, 500, json.RawMessage(`{"oops": true}`))
	require.NoError(t, err)

	snapshot, err := svc.Analyze(1)
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.GradedEssays)
	require.Equal(t, 840, snapshot.AverageTotal)
	require.Equal(t, 2, snapshot.TotalWords)
}

func TestAnalyzeIsolatedPerUser(t *testing.T) {
	dbStore := newTestStore(t)
	svc := NewAnalyticsService(dbStore)

	seedGradedEssay(t, dbStore, 1, "minha", "texto", [5]int{160, 160, 160, 160, 200})
	seedGradedEssay(t, dbStore, 2, "de outro", "texto", [5]int{0, 0, 0, 0, 0})

	snapshot, err := svc.Analyze(1)
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.GradedEssays)
	require.Equal(t, 840, snapshot.AverageTotal)
}
