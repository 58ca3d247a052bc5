package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewlens/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func review(bank string, rating int, date time.Time, label models.Sentiment, theme string) models.AnalyzedReview {
	compound := 0.0
	switch label {
	case models.Positive:
		compound = 0.6
	case models.Negative:
		compound = -0.6
	}
	return models.AnalyzedReview{
		Review:          models.Review{Text: "x", Rating: rating, Date: date, Bank: bank, Source: "Google Play Store"},
		SentimentResult: models.SentimentResult{Compound: compound, Label: label},
		Theme:           theme,
	}
}

func sample() []models.AnalyzedReview {
	return []models.AnalyzedReview{
		review("CBE", 5, day(0), models.Positive, "Fast Transfer Service"),
		review("CBE", 4, day(1), models.Positive, "Fast Transfer Service"),
		review("BOA", 1, day(1), models.Negative, "App Crashes Login"),
		review("CBE", 1, day(2), models.Negative, "Login Otp Code"),
		review("BOA", 2, day(33), models.Negative, "App Crashes Login"),
		review("BOA", 3, day(34), models.Neutral, "Update Slow Balance"),
		review("CBE", 0, time.Time{}, models.Neutral, "General/Not Enough Data"),
	}
}

func TestSummarizePerBank(t *testing.T) {
	report := Summarize(sample())

	assert.Equal(t, 7, report.Total)
	require.Len(t, report.Banks, 2)

	cbe, boa := report.Banks[0], report.Banks[1]
	assert.Equal(t, "CBE", cbe.Bank)
	assert.Equal(t, "BOA", boa.Bank)

	assert.Equal(t, 4, cbe.Reviews)
	assert.InDelta(t, 10.0/3.0, cbe.AvgRating, 1e-9, "missing ratings are excluded")
	assert.InDelta(t, 50.0, cbe.SentimentPercent[models.Positive], 1e-9)
	assert.InDelta(t, 25.0, cbe.SentimentPercent[models.Negative], 1e-9)
	assert.Equal(t, "Fast Transfer Service", cbe.TopThemes[0].Theme)
	assert.Equal(t, 2, cbe.TopThemes[0].Count)
	assert.Equal(t, "Login Otp Code", cbe.CriticalTheme())

	assert.InDelta(t, 2.0, boa.AvgRating, 1e-9)
	assert.Equal(t, "App Crashes Login", boa.CriticalTheme())
	require.Len(t, boa.NegativeThemes, 1)
	assert.InDelta(t, 100.0, boa.NegativeThemes[0].Percent, 1e-9)
}

func TestSentimentPercentSumsToHundred(t *testing.T) {
	for _, b := range Summarize(sample()).Banks {
		var total float64
		for _, s := range models.Sentiments {
			total += b.SentimentPercent[s]
		}
		assert.InDelta(t, 100.0, total, 1e-9, b.Bank)
	}
}

func TestSummarizeLeaders(t *testing.T) {
	report := Summarize(sample())

	assert.Equal(t, "CBE", report.HighestRating.Bank)
	assert.Equal(t, "CBE", report.HighestPositive.Bank)
	assert.Equal(t, "BOA", report.HighestNegative.Bank)
	assert.InDelta(t, 200.0/3.0, report.HighestNegative.Value, 1e-9)
}

func TestLeaderTiesKeepBankOrder(t *testing.T) {
	report := Summarize([]models.AnalyzedReview{
		review("First", 4, day(0), models.Positive, "a"),
		review("Second", 4, day(0), models.Positive, "a"),
	})
	assert.Equal(t, "First", report.HighestRating.Bank)
	assert.Equal(t, "First", report.HighestPositive.Bank)
}

func TestRankThemesTiesKeepFirstSeen(t *testing.T) {
	reviews := []models.AnalyzedReview{
		review("B", 3, day(0), models.Neutral, "b"),
		review("B", 3, day(0), models.Neutral, "a"),
		review("B", 3, day(0), models.Neutral, "c"),
		review("B", 3, day(0), models.Neutral, "a"),
		review("B", 3, day(0), models.Neutral, "d"),
		review("B", 3, day(0), models.Neutral, "e"),
	}

	themes := rankThemes(reviews, 4)
	require.Len(t, themes, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"},
		[]string{themes[0].Theme, themes[1].Theme, themes[2].Theme, themes[3].Theme})
}

func TestMonthly(t *testing.T) {
	report := Summarize(sample())

	require.Len(t, report.Monthly, 2)
	assert.Equal(t, "2024-05", report.Monthly[0].Month)
	assert.Equal(t, 2, report.Monthly[0].Counts[models.Positive])
	assert.Equal(t, 2, report.Monthly[0].Counts[models.Negative])
	assert.Equal(t, "2024-06", report.Monthly[1].Month)
	assert.Equal(t, 1, report.Monthly[1].Counts[models.Neutral])
}

func TestRollingRatingSkipsShortWindows(t *testing.T) {
	assert.Empty(t, Summarize(sample()).RollingRating, "only five rated days")

	var reviews []models.AnalyzedReview
	for d := 0; d < 9; d++ {
		reviews = append(reviews, review("X", 1+d%5, day(d), models.Neutral, "t"))
	}
	rolling := Summarize(reviews).RollingRating

	require.Len(t, rolling, 3)
	assert.Equal(t, day(6), rolling[0].Date)
	// ratings 1 2 3 4 5 1 2 | 3 4
	assert.InDelta(t, 18.0/7.0, rolling[0].Value, 1e-9)
	assert.InDelta(t, 20.0/7.0, rolling[1].Value, 1e-9)
	assert.InDelta(t, 22.0/7.0, rolling[2].Value, 1e-9)
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(Summarize(sample()))

	assert.Contains(t, md, "Total reviews analyzed: **7**")
	assert.Contains(t, md, "Highest negative sentiment: BOA (66.7%)")
	assert.Contains(t, md, "### BOA")
	assert.Contains(t, md, "Critical negative theme: **App Crashes Login**")
	assert.Contains(t, md, "| 2024-06 | 0 | 1 | 1 |")
}

func TestRenderHTML(t *testing.T) {
	html := string(RenderHTML(Summarize(sample())))

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h3")
	assert.Contains(t, html, "BOA")
}
