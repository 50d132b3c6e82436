// Package prompt assembles the instruction text sent to the model. Three
// strategies exist, and Build selects the richest one the request's context
// allows: tagged header references, a plain header list, or the bare
// request. Assembly is deterministic; identical inputs always produce the
// identical prompt string, which the result cache depends on.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/formulaspark/formulaspark/pkg/models"
)

// Input is the context available for prompt assembly.
type Input struct {
	SheetName   string
	UserPrompt  string
	Headers     []string
	Tagged      map[string]models.HeaderRef
	DateColumns map[string]string
}

// Mode names the strategy Build will use for this input.
func (in Input) Mode() string {
	switch {
	case len(in.Tagged) > 0:
		return "tagged"
	case len(in.Headers) > 0:
		return "context"
	default:
		return "simple"
	}
}

// Build renders the prompt for the richest strategy the input supports.
func Build(in Input) string {
	switch in.Mode() {
	case "tagged":
		return render(taggedTmpl, templateData{
			SheetName:     in.SheetName,
			UserPrompt:    in.UserPrompt,
			TaggedHeaders: taggedBlock(in),
		})
	case "context":
		return render(contextTmpl, templateData{
			SheetName:     in.SheetName,
			UserPrompt:    in.UserPrompt,
			ColumnHeaders: quotedHeaders(in.Headers),
		})
	default:
		return render(simpleTmpl, templateData{
			SheetName:  in.SheetName,
			UserPrompt: in.UserPrompt,
		})
	}
}

type templateData struct {
	SheetName     string
	UserPrompt    string
	ColumnHeaders string
	TaggedHeaders string
}

func render(t *template.Template, data templateData) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		panic(err)
	}
	return b.String()
}

// quotedHeaders renders headers in caller order: 'Name', 'Region', 'Sales'.
func quotedHeaders(headers []string) string {
	quoted := make([]string, len(headers))
	for i, h := range headers {
		quoted[i] = "'" + h + "'"
	}
	return strings.Join(quoted, ", ")
}

// taggedBlock renders one reference line per tag in sorted tag order, with
// placeholders for malformed entries so a bad picker row never aborts the
// build, plus a trailing date-column note when detection found any.
func taggedBlock(in Input) string {
	tags := make([]string, 0, len(in.Tagged))
	for tag := range in.Tagged {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var b strings.Builder
	for i, tag := range tags {
		ref := in.Tagged[tag]
		header, column, rng := ref.Header, ref.Column, ref.Range
		if header == "" {
			header = "Unknown"
		}
		if column == "" {
			column = "?"
		}
		if rng == "" {
			rng = "?:?"
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s (%s) = Column %s (%s)", tag, header, column, rng)
	}

	if len(in.DateColumns) > 0 {
		cols := make([]string, 0, len(in.DateColumns))
		for col := range in.DateColumns {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = fmt.Sprintf("%s (%s)", col, in.DateColumns[col])
		}
		fmt.Fprintf(&b, "\n- **Date Columns Detected:** %s", strings.Join(parts, ", "))
	}
	return b.String()
}
