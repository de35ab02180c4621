package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"profileai/internal/domain"
	"profileai/internal/normalize"
)

// MaxStyleImages bounds the aspiration images one style request may carry.
const MaxStyleImages = 3

// Style builds the style extraction request for 1 to 3 aspiration images.
func Style(images []domain.UploadedImage) (Envelope, error) {
	if len(images) == 0 || len(images) > MaxStyleImages {
		return Envelope{}, domain.NewInputError(fmt.Sprintf("style analysis needs 1 to %d images, got %d", MaxStyleImages, len(images)))
	}
	return newEnvelope(UseStyle, styleSystem, fmt.Sprintf(styleTemplate, len(images)), images, MaxTokensReport), nil
}

// Comparison builds the profile versus aspiration request.
func Comparison(profile domain.UploadedImage, aspirationSummary string) (Envelope, error) {
	summary := strings.TrimSpace(aspirationSummary)
	if summary == "" {
		return Envelope{}, domain.NewInputError("aspiration summary is required")
	}
	if len(profile.Data) == 0 {
		return Envelope{}, domain.NewInputError("profile image is required")
	}
	instruction := fmt.Sprintf(comparisonTemplate, summary)
	return newEnvelope(UseComparison, comparisonSystem, instruction, []domain.UploadedImage{profile}, MaxTokensReport), nil
}

// Translation builds the request that turns an improvement note written in
// source into an English edit instruction.
func Translation(note string, source language.Tag) (Envelope, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return Envelope{}, domain.NewInputError("edit instruction is empty")
	}
	return newEnvelope(UseTranslation, fmt.Sprintf(translationSystem, LanguageName(source)), note, nil, MaxTokensTranslation), nil
}

// Lab wraps a free-form operator prompt with up to 3 images.
func Lab(text string, images []domain.UploadedImage) (Envelope, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Envelope{}, domain.NewInputError("prompt is required")
	}
	if len(images) > MaxStyleImages {
		return Envelope{}, domain.NewInputError(fmt.Sprintf("at most %d images are allowed, got %d", MaxStyleImages, len(images)))
	}
	return newEnvelope(UseLab, "", text, images, MaxTokensLab), nil
}

// LanguageName returns the English name of tag, e.g. "Korean" for ko.
func LanguageName(tag language.Tag) string {
	if tag == language.Und {
		return "source"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// BackgroundPrompt is one text-to-image request of the background generator.
type BackgroundPrompt struct {
	Type   string
	Label  string
	Prompt string
}

// title returns s in English title case. Casers keep state, so each call
// gets its own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Backgrounds builds the natural and artistic prompts from an aspiration
// summary and an optional comparison report.
func Backgrounds(aspirationSummary string, comparison normalize.Result) ([]BackgroundPrompt, error) {
	summary := strings.TrimSpace(aspirationSummary)
	if summary == "" {
		return nil, domain.NewInputError("aspiration summary is required")
	}
	direction := ""
	if improvement := strings.TrimSpace(comparison.String("improvement")); improvement != "" {
		direction = fmt.Sprintf(backgroundDirection, improvement)
	}
	variants := []struct {
		kind, template string
	}{
		{kind: "natural", template: naturalBackgroundTemplate},
		{kind: "artistic", template: artisticBackgroundTemplate},
	}
	out := make([]BackgroundPrompt, 0, len(variants))
	for _, v := range variants {
		out = append(out, BackgroundPrompt{
			Type:   v.kind,
			Label:  title(v.kind + " background"),
			Prompt: fmt.Sprintf(v.template, summary) + direction,
		})
	}
	return out, nil
}

// SummarizeStyleReport flattens a style report into the text block embedded
// in comparison prompts.
func SummarizeStyleReport(report normalize.Result) string {
	var lines []string
	if msg := strings.TrimSpace(report.String("main_message")); msg != "" {
		lines = append(lines, "Main message: "+msg)
	}
	if keywords := report.Strings("keywords"); len(keywords) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(keywords, ", "))
	}
	if traits, ok := report.Object("profile_traits"); ok {
		for _, key := range normalize.TraitKeys {
			if v := strings.TrimSpace(traits.String(key)); v != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", title(strings.ReplaceAll(key, "_", " ")), v))
			}
		}
	}
	if behavior := strings.TrimSpace(report.String("behavior_summary")); behavior != "" {
		lines = append(lines, "Behavior: "+behavior)
	}
	return strings.Join(lines, "\n")
}
