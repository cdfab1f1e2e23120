package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"factory-assistant/internal/model"
)

const dateLayout = "2006-01-02"

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	longDatePattern  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	thisMonthPattern = regexp.MustCompile(`\bthis month\b`)
	todayPattern     = regexp.MustCompile(`\btoday\b`)
	yesterdayPattern = regexp.MustCompile(`\byesterday\b`)
	thisWeekPattern  = regexp.MustCompile(`\bthis week\b`)
	lastWeekPattern  = regexp.MustCompile(`\blast week\b`)
	lastMonthPattern = regexp.MustCompile(`\b(?:last|previous) month\b|\ba month ago\b`)
	monthPattern     = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\b(?:,?\s+(20\d{2}))?`)
	mayContext       = regexp.MustCompile(`\b(?:in|for|of|during)\s+$`)
	pastWeekPattern  = regexp.MustCompile(`\bpast week\b`)
)

type dateRule func(text string, today time.Time) *model.DateFilter

// extractDate tries the date rules in priority order. The first rule that matches wins.
func (a *Analyzer) extractDate(text string, _ model.Analysis) model.Fragment {
	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rules := []dateRule{
		isoDate,
		longDate,
		thisMonth,
		relativeDay,
		lastMonth,
		bareMonth,
		pastWeek,
	}
	for _, rule := range rules {
		if date := rule(text, today); date != nil {
			return model.Fragment{Date: date}
		}
	}
	return model.Fragment{}
}

func isoDate(text string, _ time.Time) *model.DateFilter {
	for _, m := range isoDatePattern.FindAllStringSubmatch(text, -1) {
		if _, err := time.Parse(dateLayout, m[1]); err == nil {
			return exactDate(m[1], m[1])
		}
	}
	return nil
}

func longDate(text string, _ time.Time) *model.DateFilter {
	for _, m := range longDatePattern.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		month := months[m[1]]
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if date.Day() != day || date.Month() != month {
			continue
		}
		value := date.Format(dateLayout)
		return exactDate(value, value)
	}
	return nil
}

func thisMonth(text string, today time.Time) *model.DateFilter {
	if !thisMonthPattern.MatchString(text) {
		return nil
	}
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return dateRange(start, today, "this month")
}

func relativeDay(text string, today time.Time) *model.DateFilter {
	switch {
	case todayPattern.MatchString(text):
		return exactDate(today.Format(dateLayout), "today")
	case yesterdayPattern.MatchString(text):
		return exactDate(today.AddDate(0, 0, -1).Format(dateLayout), "yesterday")
	case thisWeekPattern.MatchString(text):
		return dateRange(startOfWeek(today), today, "this week")
	case lastWeekPattern.MatchString(text):
		start := startOfWeek(today).AddDate(0, 0, -7)
		return dateRange(start, start.AddDate(0, 0, 6), "last week")
	}
	return nil
}

func lastMonth(text string, today time.Time) *model.DateFilter {
	if !lastMonthPattern.MatchString(text) {
		return nil
	}
	firstOfThisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	start := firstOfThisMonth.AddDate(0, -1, 0)
	return dateRange(start, firstOfThisMonth.AddDate(0, 0, -1), "last month")
}

// bareMonth resolves a month name to the whole month. Without a year, a month later
// than the current one refers to the previous year.
func bareMonth(text string, today time.Time) *model.DateFilter {
	for _, idx := range monthPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[idx[2]:idx[3]]
		hasYear := idx[4] >= 0
		if name == "may" && !hasYear && !mayContext.MatchString(text[:idx[0]]) {
			continue
		}

		month := months[name]
		year := today.Year()
		if hasYear {
			year, _ = strconv.Atoi(text[idx[4]:idx[5]])
		} else if month > today.Month() {
			year--
		}

		start := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
		end := start.AddDate(0, 1, -1)
		return dateRange(start, end, fmt.Sprintf("%s %d", month, year))
	}
	return nil
}

func pastWeek(text string, today time.Time) *model.DateFilter {
	if !pastWeekPattern.MatchString(text) {
		return nil
	}
	return dateRange(today.AddDate(0, 0, -7), today, "the past week")
}

func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func exactDate(value, description string) *model.DateFilter {
	return &model.DateFilter{Exact: value, Description: description}
}

func dateRange(start, end time.Time, description string) *model.DateFilter {
	return &model.DateFilter{
		Start:       start.Format(dateLayout),
		End:         end.Format(dateLayout),
		Description: description,
	}
}
