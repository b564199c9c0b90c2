package emotion

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

var (
	analyzerOnce sync.Once
	analyzer     *govader.SentimentIntensityAnalyzer
)

// Vader scores text with the VADER sentiment lexicon. The analyzer is built
// once per process and shared by every Vader value.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	analyzerOnce.Do(func() {
		analyzer = govader.NewSentimentIntensityAnalyzer()
	})
	return &Vader{analyzer: analyzer}
}

// Compound returns the normalized VADER compound score in [-1, 1].
func (v *Vader) Compound(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return v.analyzer.PolarityScores(text).Compound
}
