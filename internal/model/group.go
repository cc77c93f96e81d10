package model

import "sort"

// InflectionGroup collects the news assigned to one inflection date.
type InflectionGroup struct {
	Inflection *InflectionPoint `json:"inflection"`
	News       []NewsRecord     `json:"news"`
}

// Grouping maps an inflection date (YYYY-MM-DD) to its group.
type Grouping map[string]*InflectionGroup

// Dates returns the grouping keys in ascending order.
func (g Grouping) Dates() []string {
	dates := make([]string, 0, len(g))
	for d := range g {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// NewsCount returns the total number of records across all groups.
func (g Grouping) NewsCount() int {
	n := 0
	for _, grp := range g {
		n += len(grp.News)
	}
	return n
}
