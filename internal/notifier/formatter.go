package notifier

import (
	"fmt"
	"strings"

	"InflectionTracker/internal/model"
)

// RunSummary is the data shown in a run report.
type RunSummary struct {
	Symbol      string
	Source      string
	Series      *model.PriceSeries
	Inflections []model.InflectionPoint
	// New holds inflections absent from the previous successful run.
	New       []model.InflectionPoint
	Grouping  model.Grouping
	Crossover *model.CrossoverResult
}

// FormatRunReport formats a run summary into a Telegram HTML message.
func FormatRunReport(s *RunSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s 拐点报告</b>\n\n", s.Symbol))
	if s.Series != nil && len(s.Series.Points) > 0 {
		b.WriteString(fmt.Sprintf("区间: %s ~ %s (%d 个月, 来源 %s)\n",
			s.Series.Start().Format(model.DateLayout), s.Series.End().Format(model.DateLayout),
			len(s.Series.Points), s.Source))
	}
	if s.Crossover != nil {
		b.WriteString(fmt.Sprintf("最佳均线: MA%d / MA%d (交叉 %d 次)\n",
			s.Crossover.ShortPeriod, s.Crossover.LongPeriod, s.Crossover.Crossovers))
	}
	b.WriteString(fmt.Sprintf("拐点数量: %d | 新增: %d\n\n", len(s.Inflections), len(s.New)))

	if len(s.Inflections) == 0 {
		b.WriteString("未发现显著拐点")
		return b.String()
	}

	isNew := make(map[string]bool, len(s.New))
	for _, p := range s.New {
		isNew[p.DateString()] = true
	}
	for _, p := range s.Inflections {
		b.WriteString(FormatInflection(p))
		if grp, ok := s.Grouping[p.DateString()]; ok {
			b.WriteString(fmt.Sprintf(" | 新闻 %d 条", len(grp.News)))
		}
		if isNew[p.DateString()] {
			b.WriteString(" 🆕")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatInflection renders one inflection on a single line.
func FormatInflection(p model.InflectionPoint) string {
	marker := "•"
	switch p.Kind() {
	case model.KindPeak:
		marker = "🔺"
	case model.KindTrough:
		marker = "🔻"
	}
	line := fmt.Sprintf("%s %s  %s", marker, p.DateString(), p.Price.StringFixed(2))
	if p.PriceChange != nil && p.PrevPrice != nil && !p.PrevPrice.IsZero() {
		pct := p.PriceChange.Div(*p.PrevPrice).Shift(2)
		line += fmt.Sprintf(" (%s%%)", signed(pct.StringFixed(1)))
	}
	return line
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
