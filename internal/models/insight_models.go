package models

// ThemeStat is the share of a bank's reviews that landed on one theme.
type ThemeStat struct {
	Theme   string  `json:"theme" dynamodbav:"theme"`
	Count   int     `json:"count" dynamodbav:"count"`
	Percent float64 `json:"percent" dynamodbav:"percent"`
}

// BankSummary aggregates the analyzed reviews of a single bank.
type BankSummary struct {
	Bank             string                `json:"bank" dynamodbav:"bank"`
	Reviews          int                   `json:"reviews" dynamodbav:"reviews"`
	AvgRating        float64               `json:"avg_rating" dynamodbav:"avg_rating"`
	AvgCompound      float64               `json:"avg_compound" dynamodbav:"avg_compound"`
	SentimentPercent map[Sentiment]float64 `json:"sentiment_percent" dynamodbav:"sentiment_percent"`
	TopThemes        []ThemeStat           `json:"top_themes" dynamodbav:"top_themes"`
	NegativeThemes   []ThemeStat           `json:"negative_themes" dynamodbav:"negative_themes"`
}

// CriticalTheme is the most frequent theme among negative reviews, or "N/A".
func (b BankSummary) CriticalTheme() string {
	if len(b.NegativeThemes) == 0 {
		return "N/A"
	}
	return b.NegativeThemes[0].Theme
}
