package insights

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/reviewlens/internal/models"
)

// RenderMarkdown writes the report as a Markdown document.
func RenderMarkdown(r Report) string {
	var sb strings.Builder

	sb.WriteString("# Customer Experience Report\n\n")
	fmt.Fprintf(&sb, "Total reviews analyzed: **%d**\n\n", r.Total)

	if len(r.Banks) > 0 {
		sb.WriteString("## Key Metrics\n\n")
		fmt.Fprintf(&sb, "1. Highest average rating: %s (%.2f)\n", r.HighestRating.Bank, r.HighestRating.Value)
		fmt.Fprintf(&sb, "2. Highest negative sentiment: %s (%.1f%%)\n", r.HighestNegative.Bank, r.HighestNegative.Value)
		fmt.Fprintf(&sb, "3. Highest positive sentiment: %s (%.1f%%)\n\n", r.HighestPositive.Bank, r.HighestPositive.Value)
	}

	sb.WriteString("## Overall Sentiment\n\n")
	sb.WriteString("| Sentiment | Reviews | Share |\n|---|---:|---:|\n")
	for _, s := range models.Sentiments {
		fmt.Fprintf(&sb, "| %s | %d | %.1f%% |\n", s, r.Sentiment[s], percent(r.Sentiment[s], r.Total))
	}
	sb.WriteString("\n")

	sb.WriteString("## Rating Distribution\n\n")
	sb.WriteString("| Stars | Reviews |\n|---:|---:|\n")
	for i, n := range r.Ratings {
		fmt.Fprintf(&sb, "| %d | %d |\n", i+1, n)
	}
	sb.WriteString("\n")

	sb.WriteString("## Banks\n\n")
	sb.WriteString("| Bank | Reviews | Avg rating | Avg compound | Positive | Neutral | Negative |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	for _, b := range r.Banks {
		fmt.Fprintf(&sb, "| %s | %d | %.2f | %.3f | %.1f%% | %.1f%% | %.1f%% |\n",
			escapeCell(b.Bank), b.Reviews, b.AvgRating, b.AvgCompound,
			b.SentimentPercent[models.Positive],
			b.SentimentPercent[models.Neutral],
			b.SentimentPercent[models.Negative])
	}
	sb.WriteString("\n")

	for _, b := range r.Banks {
		fmt.Fprintf(&sb, "### %s\n\n", b.Bank)
		fmt.Fprintf(&sb, "Critical negative theme: **%s**\n\n", b.CriticalTheme())
		writeThemes(&sb, "Top themes", b.TopThemes)
		writeThemes(&sb, "Themes in negative reviews", b.NegativeThemes)
	}

	if len(r.Monthly) > 0 {
		sb.WriteString("## Monthly Sentiment\n\n")
		sb.WriteString("| Month | Positive | Neutral | Negative |\n|---|---:|---:|---:|\n")
		for _, m := range r.Monthly {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d |\n", m.Month,
				m.Counts[models.Positive], m.Counts[models.Neutral], m.Counts[models.Negative])
		}
		sb.WriteString("\n")
	}

	if len(r.RollingRating) > 0 {
		sb.WriteString("## 7-Day Rolling Average Rating\n\n")
		sb.WriteString("| Date | Rating |\n|---|---:|\n")
		for _, d := range r.RollingRating {
			fmt.Fprintf(&sb, "| %s | %.2f |\n", d.Date.Format("2006-01-02"), d.Value)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeThemes(sb *strings.Builder, title string, themes []models.ThemeStat) {
	if len(themes) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n\n", title)
	for _, t := range themes {
		fmt.Fprintf(sb, "- %s: %d (%.1f%%)\n", t.Theme, t.Count, t.Percent)
	}
	sb.WriteString("\n")
}

// table cells cannot contain a bare pipe
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderHTML renders the Markdown report into a standalone HTML page.
func RenderHTML(r Report) []byte {
	body := blackfriday.Run([]byte(RenderMarkdown(r)),
		blackfriday.WithExtensions(blackfriday.CommonExtensions))

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString("<title>Customer Experience Report</title>\n</head>\n<body>\n")
	sb.Write(body)
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String())
}
