package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

func TestCategoryClassifier_Classify(t *testing.T) {
	c := NewCategoryClassifier(nil)

	tests := []struct {
		name string
		raw  string
		want types.Category
	}{
		{"earlier category in the list wins", "Museo, Restaurante", "restaurante"},
		{"fast food restaurant", "Restaurante de Comida Rápida, Hamburguesería", "restaurante"},
		{"case insensitive", "MUSEO DE ARTE", "museo"},
		{"substring inside a word", "Barbería y Bar", "bar"},
		{"multi-word category", "Centro Comercial", "centro comercial"},
		{"park before bar", "Parque de diversiones con bar", "parque"},
		{"no match", "Iglesia católica", types.CategoryUnclassified},
		{"empty", "", types.CategoryUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.raw))
		})
	}
}

func TestCategoryClassifier_MuseoBeforeRestaurante(t *testing.T) {
	c := NewCategoryClassifier([]types.Category{"museo", "restaurante"})
	assert.Equal(t, types.Category("museo"), c.Classify("Restaurante, Museo"))
}

func TestCategoryClassifier_CustomVocabulary(t *testing.T) {
	c := NewCategoryClassifier([]types.Category{"Cine", "", "Teatro"})
	assert.Equal(t, []types.Category{"cine", "teatro"}, c.Categories())
	assert.Equal(t, types.Category("teatro"), c.Classify("Teatro Pablo Tobón"))
	assert.Equal(t, types.CategoryUnclassified, c.Classify("Restaurante"))
}
