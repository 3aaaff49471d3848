package core

import (
	"fmt"
	"strings"
	"testing"
)

// gradeJSON builds a payload with the given five notas and reported total.
func gradeJSON(notas [5]int, total int) string {
	var b strings.Builder
	b.WriteString(`{"competencias":{`)
	for i, n := range notas {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `"c%d":{"nota":%d,"comentario":"c%d ok"}`, i+1, n, i+1)
	}
	fmt.Fprintf(&b, `},"total":%d}`, total)
	return b.String()
}

func TestParseGradeValid(t *testing.T) {
	grade, err := ParseGrade([]byte(gradeJSON([5]int{160, 160, 160, 160, 200}, 840)))
	if err != nil {
		t.Fatalf("ParseGrade returned error: %v", err)
	}
	if grade.Total != 840 {
		t.Errorf("Total = %d, want 840", grade.Total)
	}
	if grade.Nota("c5") != 200 {
		t.Errorf("c5 nota = %d, want 200", grade.Nota("c5"))
	}
	if grade.Competencias["c1"].Comentario != "c1 ok" {
		t.Errorf("c1 comentario = %q", grade.Competencias["c1"].Comentario)
	}
}

func TestParseGradeRecomputesTotal(t *testing.T) {
	// The reported total disagrees with the competency sum; the sum wins.
	grade, err := ParseGrade([]byte(gradeJSON([5]int{120, 120, 120, 120, 120}, 980)))
	if err != nil {
		t.Fatalf("ParseGrade returned error: %v", err)
	}
	if grade.Total != 600 {
		t.Errorf("Total = %d, want recomputed 600", grade.Total)
	}
}

func TestParseGradeFloatNotas(t *testing.T) {
	// Models sometimes emit integral floats.
	data := `{"competencias":{"c1":{"nota":160.0},"c2":{"nota":160.0},"c3":{"nota":160.0},"c4":{"nota":160.0},"c5":{"nota":200.0}},"total":840.0}`
	grade, err := ParseGrade([]byte(data))
	if err != nil {
		t.Fatalf("ParseGrade returned error: %v", err)
	}
	if grade.Total != 840 {
		t.Errorf("Total = %d, want 840", grade.Total)
	}
}

func TestParseGradeNarrativeDefaults(t *testing.T) {
	grade, err := ParseGrade([]byte(gradeJSON([5]int{0, 0, 0, 0, 0}, 0)))
	if err != nil {
		t.Fatalf("ParseGrade returned error: %v", err)
	}
	if grade.FeedbackGeral != "" || grade.AnaliseTexto != "" {
		t.Errorf("narrative strings should default to empty")
	}
	if grade.PontosFortes == nil || grade.PontosFracos == nil || grade.SugestoesMelhoria == nil {
		t.Errorf("narrative slices should default to empty, not nil")
	}
}

func TestParseGradeFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an object", `[]`},
		{"missing competencias", `{"total": 840}`},
		{"missing total", `{"competencias":{"c1":{"nota":0},"c2":{"nota":0},"c3":{"nota":0},"c4":{"nota":0},"c5":{"nota":0}}}`},
		{"missing c3", `{"competencias":{"c1":{"nota":0},"c2":{"nota":0},"c4":{"nota":0},"c5":{"nota":0}},"total":0}`},
		{"nota missing", `{"competencias":{"c1":{},"c2":{"nota":0},"c3":{"nota":0},"c4":{"nota":0},"c5":{"nota":0}},"total":0}`},
		{"nota off the scale", gradeJSON([5]int{50, 0, 0, 0, 0}, 50)},
		{"nota above maximum", gradeJSON([5]int{240, 0, 0, 0, 0}, 240)},
		{"negative nota", gradeJSON([5]int{-40, 0, 0, 0, 0}, -40)},
		{"nota as string", `{"competencias":{"c1":{"nota":"160"},"c2":{"nota":0},"c3":{"nota":0},"c4":{"nota":0},"c5":{"nota":0}},"total":160}`},
		{"fractional nota", `{"competencias":{"c1":{"nota":160.5},"c2":{"nota":0},"c3":{"nota":0},"c4":{"nota":0},"c5":{"nota":0}},"total":160}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGrade([]byte(tt.data)); err == nil {
				t.Errorf("ParseGrade(%s) should fail", tt.data)
			}
		})
	}
}

func TestParseGradeEveryMissingCompetency(t *testing.T) {
	full := map[string]string{
		"c1": `"c1":{"nota":160}`, "c2": `"c2":{"nota":160}`, "c3": `"c3":{"nota":160}`,
		"c4": `"c4":{"nota":160}`, "c5": `"c5":{"nota":200}`,
	}
	for _, missing := range CompetencyKeys {
		var parts []string
		for key, fragment := range full {
			if key != missing {
				parts = append(parts, fragment)
			}
		}
		data := `{"competencias":{` + strings.Join(parts, ",") + `},"total":840}`
		if _, err := ParseGrade([]byte(data)); err == nil {
			t.Errorf("ParseGrade without %s should fail", missing)
		}
	}
}
