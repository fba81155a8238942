package models

// TemplateType identifies one of the known template variants.
type TemplateType string

const (
	TemplateStandard TemplateType = "standard"
	TemplateModern   TemplateType = "modern"
	TemplateMinimal  TemplateType = "minimal"
)

// KnownTemplate reports whether t is one of the three supported variants.
// Unknown values are still passed through to the render engine, which treats
// them as "standard".
func KnownTemplate(t TemplateType) bool {
	switch t {
	case TemplateStandard, TemplateModern, TemplateMinimal:
		return true
	}
	return false
}

// SpacingConfig holds the CSS-style spacing lengths of a template.
type SpacingConfig struct {
	Padding        string `bson:"padding" json:"padding"`
	ContentSpacing string `bson:"content_spacing" json:"contentSpacing"`
}

// EmailConfig is the central entity of the editor: one composed email template.
// ID is assigned by the config store on first save; a zero ID means the config
// is an unsaved draft. ImageURL may be empty, a data-URI (client-side preview),
// an absolute URL, or a store-relative path like /uploads/<name>.
type EmailConfig struct {
	ID           int64         `bson:"id,omitempty" json:"id,omitempty"`
	Title        string        `bson:"title" json:"title"`
	Content      string        `bson:"content" json:"content"`
	ImageURL     string        `bson:"image_url" json:"imageUrl"`
	Template     TemplateType  `bson:"template" json:"template"`
	FontFamily   string        `bson:"font_family" json:"fontFamily"`
	PrimaryColor string        `bson:"primary_color" json:"primaryColor"`
	Spacing      SpacingConfig `bson:"spacing" json:"spacing"`
}

// DefaultSpacing returns the spacing values used when a config omits them.
func DefaultSpacing() SpacingConfig {
	return SpacingConfig{
		Padding:        "32px",
		ContentSpacing: "16px",
	}
}

// DefaultConfig returns a fresh draft with all fields defaulted.
func DefaultConfig() EmailConfig {
	return EmailConfig{
		Title:        "",
		Content:      "",
		ImageURL:     "",
		Template:     TemplateStandard,
		FontFamily:   "arial, sans-serif",
		PrimaryColor: "#2563eb",
		Spacing:      DefaultSpacing(),
	}
}

// MergeWithDefaults produces a complete EmailConfig from a possibly-partial
// one: any zero-valued top-level field is filled from DefaultConfig, and the
// spacing sub-object is deep-merged against DefaultSpacing so it is never
// partially absent. The function is pure and idempotent.
func MergeWithDefaults(partial EmailConfig) EmailConfig {
	defaults := DefaultConfig()
	merged := partial

	if merged.Template == "" {
		merged.Template = defaults.Template
	}
	if merged.FontFamily == "" {
		merged.FontFamily = defaults.FontFamily
	}
	if merged.PrimaryColor == "" {
		merged.PrimaryColor = defaults.PrimaryColor
	}
	if merged.Spacing.Padding == "" {
		merged.Spacing.Padding = defaults.Spacing.Padding
	}
	if merged.Spacing.ContentSpacing == "" {
		merged.Spacing.ContentSpacing = defaults.Spacing.ContentSpacing
	}

	return merged
}

// Option is a labelled value offered by the editor UI for a given field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Recommended choices surfaced by the editor. FontFamily and PrimaryColor are
// free text; these are suggestions, not constraints.
var (
	FontOptions = []Option{
		{Label: "Arial", Value: "arial, sans-serif"},
		{Label: "Times New Roman", Value: "times new roman, serif"},
		{Label: "Helvetica", Value: "helvetica, arial, sans-serif"},
		{Label: "Georgia", Value: "georgia, serif"},
	}

	TemplateOptions = []Option{
		{Label: "Standard", Value: string(TemplateStandard)},
		{Label: "Modern", Value: string(TemplateModern)},
		{Label: "Minimal", Value: string(TemplateMinimal)},
	}

	ColorOptions = []Option{
		{Label: "Blue", Value: "#2563eb"},
		{Label: "Green", Value: "#16a34a"},
		{Label: "Purple", Value: "#7c3aed"},
		{Label: "Red", Value: "#dc2626"},
	}
)
