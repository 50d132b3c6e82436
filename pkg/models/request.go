package models

import "time"

// GenerationRequest carries everything needed to produce a formula: the
// user's natural-language request plus whatever spreadsheet context the
// caller was able to gather.
type GenerationRequest struct {
	UserPrompt string `json:"user_prompt"`
	SheetName  string `json:"sheet_name"`
	Model      string `json:"model"`

	// Headers is the ordered first-row header list for the active sheet.
	Headers []string `json:"headers,omitempty"`

	// TaggedHeaders maps a short tag (for example "@Revenue") to the header
	// it references. When present it takes precedence over Headers.
	TaggedHeaders map[string]HeaderRef `json:"tagged_headers,omitempty"`

	// DateColumns maps header names to a detected date format label.
	DateColumns map[string]string `json:"date_columns,omitempty"`
}

// HeaderRef identifies a header's position in its sheet.
type HeaderRef struct {
	Header string `json:"header"`
	Column string `json:"column"` // column letter, e.g. "C"
	Range  string `json:"range"`  // full-column range, e.g. "C:C"
}

// ModelSettings are the per-call generation parameters supplied by
// configuration.
type ModelSettings struct {
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxRetries  int           `json:"max_retries"`
	Timeout     time.Duration `json:"timeout"`
}
