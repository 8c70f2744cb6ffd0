package domain

import "sort"

// TimelineMonth is the number of live records in one YYYY-MM bucket.
type TimelineMonth struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TimelineYear groups month buckets under their year.
type TimelineYear struct {
	Year   string          `json:"year"`
	Count  int             `json:"count"`
	Months []TimelineMonth `json:"months"`
}

// BuildTimeline groups grouping dates of live records by year and month.
// Years and months are sorted newest first.
func BuildTimeline(parsedDates []string) []TimelineYear {
	yearCounts := make(map[string]int)
	monthCounts := make(map[string]map[string]int)

	for _, d := range parsedDates {
		year := DateYear(d)
		yearCounts[year]++
		if monthCounts[year] == nil {
			monthCounts[year] = make(map[string]int)
		}
		monthCounts[year][DateMonth(d)]++
	}

	timeline := make([]TimelineYear, 0, len(yearCounts))
	for year, count := range yearCounts {
		months := make([]TimelineMonth, 0, len(monthCounts[year]))
		for month, n := range monthCounts[year] {
			months = append(months, TimelineMonth{Month: month, Count: n})
		}
		sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
		timeline = append(timeline, TimelineYear{Year: year, Count: count, Months: months})
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Year > timeline[j].Year })

	return timeline
}
