package formula

import "sort"

// Templates is a catalog of common formula skeletons with named
// placeholders, shown by the templates command as starting points.
var Templates = map[string]string{
	"Sum with Condition":             "=SUMIF({range}, {criteria}, {sum_range})",
	"Count with Multiple Conditions": "=COUNTIFS({range1}, {criteria1}, {range2}, {criteria2})",
	"Lookup Value":                   "=VLOOKUP({lookup_value}, {table_array}, {col_index}, {range_lookup})",
	"Date Difference":                `=DATEDIF({start_date}, {end_date}, "D")`,
	"Text Concatenation":             "=CONCATENATE({text1}, {text2})",
	"Average with Condition":         "=AVERAGEIF({range}, {criteria}, {average_range})",
	"Find Maximum":                   "=MAX({range})",
	"Find Minimum":                   "=MIN({range})",
	"Count Non-Empty":                "=COUNTA({range})",
	"Count Empty":                    "=COUNTBLANK({range})",
}

// TemplateNames returns the catalog keys in stable sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
