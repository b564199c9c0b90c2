package emotion

import (
	"fmt"
	"strings"
)

// Label is the coarse polarity shown next to each user message.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// Reading pairs a label with the compound score it was derived from.
type Reading struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Classify maps a compound score in [-1, 1] to a reading. Both thresholds are
// inclusive; anything strictly between them is neutral.
func Classify(score float64) Reading {
	switch {
	case score >= positiveThreshold:
		return Reading{Label: Positive, Score: score}
	case score <= negativeThreshold:
		return Reading{Label: Negative, Score: score}
	default:
		return Reading{Label: Neutral, Score: score}
	}
}

// Placeholder is the reading recorded for assistant messages, which are not
// classified.
func Placeholder() Reading {
	return Reading{Label: Neutral, Score: 0}
}

// Title returns the label with its first letter upper-cased.
func (l Label) Title() string {
	if l == "" {
		return ""
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// String renders the reading the way the sidebar shows it, e.g. "Positive (0.54)".
func (r Reading) String() string {
	return fmt.Sprintf("%s (%.2f)", r.Label.Title(), r.Score)
}

// Scorer produces a compound polarity score in [-1, 1].
type Scorer interface {
	Compound(text string) float64
}

// Detect scores text and classifies the result.
func Detect(scorer Scorer, text string) Reading {
	return Classify(scorer.Compound(text))
}
