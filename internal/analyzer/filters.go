package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"factory-assistant/internal/model"
)

var numberWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
}

var (
	workshopPattern   = regexp.MustCompile(`\bworkshops?\s*(?:#|no\.?|number)?\s*(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\b`)
	machinePattern    = regexp.MustCompile(`\bmachines?\s+(?:id|reference|ref|number|no\.?)?\s*#?\s*([a-z0-9][a-z0-9\-]*)`)
	technicianPattern = regexp.MustCompile(`\b(?:technicians?|handled by|fixed by|repaired by|serviced by)\s+([a-z][a-z .'\-]*)`)
	orderPattern      = regexp.MustCompile(`\borders?\s*(?:reference|ref|number|no\.?|id)?\s*#?\s*(\d+)\b`)
	chainPattern      = regexp.MustCompile(`\bchains?\s*(?:#|no\.?|number)?\s*([a-z0-9][a-z0-9\-]*)\b`)
	hourPattern       = regexp.MustCompile(`\bhour\s+(\d{1,2})\b`)
	clockPattern      = regexp.MustCompile(`\bat\s+(\d{1,2})(?::00)?\s*(am|pm|h)\b`)
	hasDigit          = regexp.MustCompile(`\d`)
)

var technicianStopWords = map[string]bool{
	"today": true, "yesterday": true, "this": true, "last": true, "past": true, "previous": true,
	"in": true, "on": true, "during": true, "for": true, "since": true, "at": true, "with": true,
	"and": true, "between": true, "from": true, "workshop": true, "machine": true, "order": true,
	"chain": true, "who": true, "that": true,
}

var technicianRejectWords = map[string]bool{
	"fixed": true, "handled": true, "repaired": true, "has": true, "have": true, "had": true,
	"did": true, "does": true, "is": true, "was": true, "were": true, "with": true, "who": true,
	"which": true, "most": true, "least": true, "the": true, "performance": true, "name": true,
	"names": true, "list": true,
}

var technicianFiller = map[string]bool{
	"by": true, "named": true, "called": true, "mr": true, "ms": true, "mrs": true,
	"technician": true, "technicians": true,
}

func extractFilters(text string, _ model.Analysis) model.Fragment {
	filters := make(map[model.FilterKey]string)

	if m := workshopPattern.FindStringSubmatch(text); m != nil {
		filters[model.FilterWorkshop] = normalizeNumberWord(m[1])
	}
	if value := machineReference(text); value != "" {
		filters[model.FilterMachine] = value
	}
	if value := technicianName(text); value != "" {
		filters[model.FilterTechnician] = value
	}
	if m := orderPattern.FindStringSubmatch(text); m != nil {
		filters[model.FilterOrder] = m[1]
	}
	if value := chainReference(text); value != "" {
		filters[model.FilterChain] = value
	}
	if value := hourOfDay(text); value != "" {
		filters[model.FilterHour] = value
	}

	if len(filters) == 0 {
		return model.Fragment{}
	}
	return model.Fragment{Filters: filters}
}

func normalizeNumberWord(value string) string {
	if digit, ok := numberWords[value]; ok {
		return digit
	}
	return value
}

// machineReference only accepts values shaped like a reference (W1-C2-M3, m12), which
// keeps words such as "failures" or "maintenance" out of the filter.
func machineReference(text string) string {
	for _, m := range machinePattern.FindAllStringSubmatch(text, -1) {
		value := strings.Trim(m[1], "-")
		if hasDigit.MatchString(value) {
			return strings.ToUpper(value)
		}
	}
	return ""
}

func technicianName(text string) string {
	for _, m := range technicianPattern.FindAllStringSubmatch(text, -1) {
		var name []string
		for _, word := range strings.Fields(m[1]) {
			word = strings.Trim(word, ".'-")
			if word == "" || technicianFiller[word] {
				continue
			}
			if len(name) == 0 && technicianRejectWords[word] {
				break
			}
			if technicianStopWords[word] || len(name) == 3 {
				break
			}
			name = append(name, word)
		}
		if len(name) > 0 {
			return strings.Join(name, " ")
		}
	}
	return ""
}

func chainReference(text string) string {
	for _, m := range chainPattern.FindAllStringSubmatch(text, -1) {
		value := m[1]
		if hasDigit.MatchString(value) || len(value) == 1 {
			return value
		}
	}
	return ""
}

func hourOfDay(text string) string {
	if m := hourPattern.FindStringSubmatch(text); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil && h < 24 {
			return fmt.Sprintf("%02d", h)
		}
	}
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return ""
		}
		switch m[2] {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		if h < 24 {
			return fmt.Sprintf("%02d", h)
		}
	}
	return ""
}
