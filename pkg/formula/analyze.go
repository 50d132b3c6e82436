package formula

import "strings"

var knownFunctions = []string{
	"SUM", "COUNT", "AVERAGE", "MAX", "MIN", "IF", "VLOOKUP", "HLOOKUP",
	"INDEX", "MATCH", "SUMIF", "SUMIFS", "COUNTIF", "COUNTIFS",
	"AVERAGEIF", "AVERAGEIFS", "CONCATENATE", "LEFT", "RIGHT", "MID",
	"LEN", "FIND", "SEARCH", "SUBSTITUTE", "REPLACE", "TRIM",
	"UPPER", "LOWER", "PROPER", "TEXT", "VALUE", "DATE", "TIME",
	"YEAR", "MONTH", "DAY", "HOUR", "MINUTE", "SECOND", "NOW", "TODAY",
}

var complexFunctions = []string{"VLOOKUP", "INDEX", "MATCH", "IF", "SUMIFS", "COUNTIFS"}

// Functions counts occurrences of known spreadsheet functions in a formula.
func Functions(formula string) map[string]int {
	usage := make(map[string]int)
	upper := strings.ToUpper(formula)
	for _, fn := range knownFunctions {
		if n := strings.Count(upper, fn+"("); n > 0 {
			usage[fn] = n
		}
	}
	return usage
}

// Complexity scores a formula; higher means harder to read and maintain.
func Complexity(formula string) int {
	score := len(formula) / 10
	score += strings.Count(formula, "(") * 2

	upper := strings.ToUpper(formula)
	for _, fn := range complexFunctions {
		score += strings.Count(upper, fn+"(") * 3
	}

	if strings.HasPrefix(formula, "{") && strings.HasSuffix(formula, "}") {
		score += 10
	}
	return score
}

// Suggestions returns improvement hints for common formula anti-patterns.
func Suggestions(formula string) []string {
	var suggestions []string

	if strings.Contains(formula, "VLOOKUP") && !strings.Contains(formula, "FALSE") {
		suggestions = append(suggestions, "Consider using FALSE for exact match in VLOOKUP")
	}
	if strings.Contains(formula, "SUMIF") && !strings.Contains(formula, "SUMIFS") {
		suggestions = append(suggestions, "Consider SUMIFS for multiple criteria")
	}
	if strings.Contains(formula, "COUNTIF") && !strings.Contains(formula, "COUNTIFS") {
		suggestions = append(suggestions, "Consider COUNTIFS for multiple criteria")
	}
	if strings.Count(formula, "IF") > 3 {
		suggestions = append(suggestions, "Consider using IFS or SWITCH for multiple conditions")
	}
	if strings.Contains(formula, "A:A") || strings.Contains(formula, "B:B") {
		suggestions = append(suggestions, "Consider using specific ranges instead of entire columns for better performance")
	}
	return suggestions
}
