package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_scanner/internal/models"
)

var sectionTitles = map[models.Category]string{
	models.CategoryEarlyWarning: "🟡 Early warning",
	models.CategoryConfirmedBuy: "🟢 Confirmed entry",
	models.CategoryContinuation: "🔵 Continuation",
	models.CategoryTrendBuy:     "📈 Trend BUY",
	models.CategoryTrendSell:    "📉 Trend SELL",
	models.CategorySellPressure: "🔴 Sell pressure",
}

// Title names the pass: profile and its timeframes.
func Title(p models.Profile) string {
	if p.Kind == models.ProfileTrend || p.SecondaryTF == "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.PrimaryTF)
	}
	return fmt.Sprintf("%s (%s/%s)", p.Name, p.PrimaryTF, p.SecondaryTF)
}

// Render formats a finalized report as Telegram Markdown.
func Render(r *models.ScanReport, p models.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*📡 %s*\n", esc(r.Title))
	fmt.Fprintf(&b, "%s UTC | scanned: %d | market: %s\n",
		r.StartedAt.UTC().Format("2006-01-02 15:04"), r.Scanned, r.Market.State)
	if r.Partial {
		b.WriteString("⚠️ partial pass: deadline reached\n")
	}

	for _, c := range models.Categories {
		if c != models.CategorySellPressure {
			section(&b, c, r.List(c))
		}
	}

	if r.SellPressureCount > 0 {
		if p.ListSellSignals {
			section(&b, models.CategorySellPressure, r.SellPressure)
		}
		fmt.Fprintf(&b, "\nSell pressure: %d\n", r.SellPressureCount)
	}

	if skips := skipLine(r.Skipped); skips != "" || r.Failed > 0 {
		fmt.Fprintf(&b, "\nevaluated: %d", r.Evaluated)
		if skips != "" {
			fmt.Fprintf(&b, " | skipped: %s", esc(skips))
		}
		if r.Failed > 0 {
			fmt.Fprintf(&b, " | failed: %d", r.Failed)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderFailure is the single message sent when a pass cannot start.
func RenderFailure(p models.Profile, err error) string {
	return fmt.Sprintf("*⚠️ %s*\nscan failed: %s\n", esc(Title(p)), esc(err.Error()))
}

func section(b *strings.Builder, c models.Category, rs []models.SignalResult) {
	if len(rs) == 0 {
		return
	}
	fmt.Fprintf(b, "\n*%s* (%d)\n", sectionTitles[c], len(rs))
	for _, r := range rs {
		b.WriteString(Line(r))
		b.WriteByte('\n')
	}
}

// Line renders one result as "- INST | name:value ... | score:N".
func Line(r models.SignalResult) string {
	parts := make([]string, 0, len(r.Evidence))
	for _, m := range r.Evidence {
		parts = append(parts, m.Name+":"+formatMetric(m.Value))
	}
	return fmt.Sprintf("- %s | %s | score:%d", esc(r.InstID), esc(strings.Join(parts, " ")), r.Score)
}

func formatMetric(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case a >= 10:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func skipLine(skipped map[models.SkipReason]int) string {
	reasons := make([]string, 0, len(skipped))
	for reason, n := range skipped {
		if n > 0 {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	sort.Strings(reasons)
	return strings.Join(reasons, " ")
}

func esc(s string) string {
	return tgbot.EscapeText(tgbot.ModeMarkdown, s)
}
