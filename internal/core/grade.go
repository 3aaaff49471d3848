package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// The five rubric competencies, each scored in steps of 40 up to 200.
var CompetencyKeys = []string{"c1", "c2", "c3", "c4", "c5"}

const MaxCompetencyScore = 200

// Competency is one rubric dimension of a grade.
type Competency struct {
	Nota       int    `json:"nota"`
	Comentario string `json:"comentario"`
}

// Grade is the canonical structured grading payload. Narrative fields are
// optional; competency scores and the total are not.
type Grade struct {
	Competencias      map[string]Competency `json:"competencias"`
	Total             int                   `json:"total"`
	FeedbackGeral     string                `json:"feedback_geral"`
	PontosFortes      []string              `json:"pontos_fortes"`
	PontosFracos      []string              `json:"pontos_fracos"`
	AnaliseTexto      string                `json:"analise_texto"`
	SugestoesMelhoria []string              `json:"sugestoes_melhoria"`
}

// Nota returns the score of one competency, 0 when the key is absent.
func (g *Grade) Nota(key string) int {
	return g.Competencias[key].Nota
}

// rawGrade tolerates the shapes models actually produce: scores may arrive as
// floats, and any field may simply be missing.
type rawGrade struct {
	Competencias map[string]struct {
		Nota       *float64 `json:"nota"`
		Comentario string   `json:"comentario"`
	} `json:"competencias"`
	Total             *float64 `json:"total"`
	FeedbackGeral     string   `json:"feedback_geral"`
	PontosFortes      []string `json:"pontos_fortes"`
	PontosFracos      []string `json:"pontos_fracos"`
	AnaliseTexto      string   `json:"analise_texto"`
	SugestoesMelhoria []string `json:"sugestoes_melhoria"`
}

// ParseGrade validates a decoded grading object and normalizes it into the
// canonical Grade. It requires five competencies c1..c5 with scores from the
// rubric's allowed set, and a numeric total. The returned total is always the
// recomputed sum of the five scores; the externally reported total is only
// required to exist, never trusted. Missing narrative fields become empty
// values. ParseGrade returns an error rather than panicking on any shape
// deviation.
func ParseGrade(data []byte) (*Grade, error) {
	var rg rawGrade
	if err := json.Unmarshal(data, &rg); err != nil {
		return nil, fmt.Errorf("grade payload does not match schema: %w", err)
	}

	if rg.Competencias == nil {
		return nil, errors.New("grade payload has no competencias")
	}
	if rg.Total == nil {
		return nil, errors.New("grade payload has no total")
	}

	grade := &Grade{
		Competencias:      make(map[string]Competency, len(CompetencyKeys)),
		FeedbackGeral:     rg.FeedbackGeral,
		PontosFortes:      rg.PontosFortes,
		PontosFracos:      rg.PontosFracos,
		AnaliseTexto:      rg.AnaliseTexto,
		SugestoesMelhoria: rg.SugestoesMelhoria,
	}
	if grade.PontosFortes == nil {
		grade.PontosFortes = []string{}
	}
	if grade.PontosFracos == nil {
		grade.PontosFracos = []string{}
	}
	if grade.SugestoesMelhoria == nil {
		grade.SugestoesMelhoria = []string{}
	}

	sum := 0
	for _, key := range CompetencyKeys {
		rc, ok := rg.Competencias[key]
		if !ok {
			return nil, fmt.Errorf("grade payload is missing competency %s", key)
		}
		if rc.Nota == nil {
			return nil, fmt.Errorf("competency %s has no nota", key)
		}
		nota := int(*rc.Nota)
		if float64(nota) != *rc.Nota || !validNota(nota) {
			return nil, fmt.Errorf("competency %s has invalid nota %v", key, *rc.Nota)
		}
		grade.Competencias[key] = Competency{Nota: nota, Comentario: rc.Comentario}
		sum += nota
	}
	grade.Total = sum

	return grade, nil
}

func validNota(n int) bool {
	return n >= 0 && n <= MaxCompetencyScore && n%40 == 0
}
