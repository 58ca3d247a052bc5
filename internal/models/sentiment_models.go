package models

type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// Sentiments lists the labels in reporting order.
var Sentiments = []Sentiment{Positive, Neutral, Negative}

func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Neutral, Negative:
		return true
	}
	return false
}

type SentimentResult struct {
	Compound float64   `json:"compound_score"`
	Label    Sentiment `json:"sentiment"`
}
