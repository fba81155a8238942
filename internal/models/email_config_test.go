package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeWithDefaults_EmptyInput(t *testing.T) {
	merged := MergeWithDefaults(EmailConfig{})

	assert.Equal(t, TemplateStandard, merged.Template)
	assert.Equal(t, "arial, sans-serif", merged.FontFamily)
	assert.Equal(t, "#2563eb", merged.PrimaryColor)
	assert.Equal(t, "32px", merged.Spacing.Padding)
	assert.Equal(t, "16px", merged.Spacing.ContentSpacing)
	// Text fields stay empty, there is no meaningful default for them.
	assert.Equal(t, "", merged.Title)
	assert.Equal(t, "", merged.Content)
	assert.Equal(t, "", merged.ImageURL)
}

func TestMergeWithDefaults_KeepsProvidedValues(t *testing.T) {
	partial := EmailConfig{
		ID:           7,
		Title:        "Launch",
		Template:     TemplateModern,
		FontFamily:   "georgia, serif",
		PrimaryColor: "#dc2626",
		Spacing:      SpacingConfig{Padding: "8px", ContentSpacing: "4px"},
	}

	merged := MergeWithDefaults(partial)
	assert.Equal(t, partial, merged)
}

func TestMergeWithDefaults_PartialSpacing(t *testing.T) {
	merged := MergeWithDefaults(EmailConfig{
		Spacing: SpacingConfig{Padding: "64px"},
	})

	assert.Equal(t, "64px", merged.Spacing.Padding)
	assert.Equal(t, "16px", merged.Spacing.ContentSpacing)
}

func TestMergeWithDefaults_Idempotent(t *testing.T) {
	inputs := []EmailConfig{
		{},
		{Title: "x"},
		{Template: TemplateMinimal, Spacing: SpacingConfig{ContentSpacing: "2px"}},
	}

	for _, in := range inputs {
		once := MergeWithDefaults(in)
		twice := MergeWithDefaults(once)
		assert.Equal(t, once, twice)
	}
}

func TestMergeWithDefaults_DoesNotMutateInput(t *testing.T) {
	partial := EmailConfig{Title: "keep me"}
	_ = MergeWithDefaults(partial)

	assert.Equal(t, "", string(partial.Template))
	assert.Equal(t, "", partial.Spacing.Padding)
}

func TestMergeWithDefaults_UnknownTemplatePassesThrough(t *testing.T) {
	merged := MergeWithDefaults(EmailConfig{Template: "futuristic"})
	assert.Equal(t, TemplateType("futuristic"), merged.Template)
}

func TestKnownTemplate(t *testing.T) {
	assert.True(t, KnownTemplate(TemplateStandard))
	assert.True(t, KnownTemplate(TemplateModern))
	assert.True(t, KnownTemplate(TemplateMinimal))
	assert.False(t, KnownTemplate(""))
	assert.False(t, KnownTemplate("futuristic"))
}
