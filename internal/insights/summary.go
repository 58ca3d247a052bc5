// Package insights aggregates analyzed reviews into per-bank and overall
// metrics and renders them as a report.
package insights

import (
	"sort"
	"time"

	"github.com/spacesedan/reviewlens/internal/models"
)

const (
	topThemes      = 4
	negativeThemes = 5
	rollingWindow  = 7
)

// BankMetric names the bank that leads one overall metric.
type BankMetric struct {
	Bank  string
	Value float64
}

type MonthlySentiment struct {
	Month  string
	Counts map[models.Sentiment]int
}

type DailyValue struct {
	Date  time.Time
	Value float64
}

type Report struct {
	Total     int
	Sentiment map[models.Sentiment]int
	// Ratings counts reviews per star, index 0 is one star.
	Ratings [5]int
	Banks   []models.BankSummary

	HighestRating   BankMetric
	HighestPositive BankMetric
	HighestNegative BankMetric

	Monthly []MonthlySentiment
	// RollingRating is the 7-day rolling mean of the daily mean rating,
	// over the days that have rated reviews.
	RollingRating []DailyValue
}

// Summarize computes the report. Banks appear in order of first
// appearance, and every tie resolves to the earlier bank or theme.
// Missing ratings and dates are left out of the aggregates that need them.
func Summarize(reviews []models.AnalyzedReview) Report {
	report := Report{
		Total:     len(reviews),
		Sentiment: zeroCounts(),
	}

	var order []string
	byBank := make(map[string][]models.AnalyzedReview)
	for _, r := range reviews {
		report.Sentiment[r.Label]++
		if r.Rating >= 1 && r.Rating <= 5 {
			report.Ratings[r.Rating-1]++
		}
		if _, ok := byBank[r.Bank]; !ok {
			order = append(order, r.Bank)
		}
		byBank[r.Bank] = append(byBank[r.Bank], r)
	}

	for _, bank := range order {
		report.Banks = append(report.Banks, summarizeBank(bank, byBank[bank]))
	}

	report.HighestRating = leader(report.Banks, func(b models.BankSummary) float64 { return b.AvgRating })
	report.HighestPositive = leader(report.Banks, func(b models.BankSummary) float64 { return b.SentimentPercent[models.Positive] })
	report.HighestNegative = leader(report.Banks, func(b models.BankSummary) float64 { return b.SentimentPercent[models.Negative] })

	report.Monthly = monthly(reviews)
	report.RollingRating = rollingRating(reviews, rollingWindow)
	return report
}

func summarizeBank(bank string, reviews []models.AnalyzedReview) models.BankSummary {
	summary := models.BankSummary{
		Bank:             bank,
		Reviews:          len(reviews),
		SentimentPercent: make(map[models.Sentiment]float64, len(models.Sentiments)),
	}

	counts := zeroCounts()
	var (
		ratingSum, compoundSum float64
		rated                  int
		negative               []models.AnalyzedReview
	)
	for _, r := range reviews {
		counts[r.Label]++
		compoundSum += r.Compound
		if r.Rating > 0 {
			ratingSum += float64(r.Rating)
			rated++
		}
		if r.Label == models.Negative {
			negative = append(negative, r)
		}
	}

	if rated > 0 {
		summary.AvgRating = ratingSum / float64(rated)
	}
	summary.AvgCompound = compoundSum / float64(len(reviews))
	for _, s := range models.Sentiments {
		summary.SentimentPercent[s] = percent(counts[s], len(reviews))
	}
	summary.TopThemes = rankThemes(reviews, topThemes)
	summary.NegativeThemes = rankThemes(negative, negativeThemes)
	return summary
}

// rankThemes returns the n most frequent themes with their share of
// reviews. Equal counts keep first-seen order.
func rankThemes(reviews []models.AnalyzedReview, n int) []models.ThemeStat {
	var stats []models.ThemeStat
	index := make(map[string]int)
	for _, r := range reviews {
		i, ok := index[r.Theme]
		if !ok {
			i = len(stats)
			index[r.Theme] = i
			stats = append(stats, models.ThemeStat{Theme: r.Theme})
		}
		stats[i].Count++
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	if len(stats) > n {
		stats = stats[:n]
	}
	for i := range stats {
		stats[i].Percent = percent(stats[i].Count, len(reviews))
	}
	return stats
}

func leader(banks []models.BankSummary, value func(models.BankSummary) float64) BankMetric {
	var best BankMetric
	for i, b := range banks {
		if v := value(b); i == 0 || v > best.Value {
			best = BankMetric{Bank: b.Bank, Value: v}
		}
	}
	return best
}

func monthly(reviews []models.AnalyzedReview) []MonthlySentiment {
	byMonth := make(map[string]map[models.Sentiment]int)
	for _, r := range reviews {
		if r.Date.IsZero() {
			continue
		}
		month := r.Date.Format("2006-01")
		if byMonth[month] == nil {
			byMonth[month] = zeroCounts()
		}
		byMonth[month][r.Label]++
	}

	out := make([]MonthlySentiment, 0, len(byMonth))
	for month, counts := range byMonth {
		out = append(out, MonthlySentiment{Month: month, Counts: counts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func rollingRating(reviews []models.AnalyzedReview, window int) []DailyValue {
	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)
	for _, r := range reviews {
		if r.Date.IsZero() || r.Rating == 0 {
			continue
		}
		a := byDay[r.Date]
		if a == nil {
			a = &acc{}
			byDay[r.Date] = a
		}
		a.sum += float64(r.Rating)
		a.n++
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var out []DailyValue
	var sum float64
	for i, d := range days {
		sum += byDay[d].sum / float64(byDay[d].n)
		if i >= window {
			prev := days[i-window]
			sum -= byDay[prev].sum / float64(byDay[prev].n)
		}
		if i >= window-1 {
			out = append(out, DailyValue{Date: d, Value: sum / float64(window)})
		}
	}
	return out
}

func zeroCounts() map[models.Sentiment]int {
	counts := make(map[models.Sentiment]int, len(models.Sentiments))
	for _, s := range models.Sentiments {
		counts[s] = 0
	}
	return counts
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
