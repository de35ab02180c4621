// Package prompt builds the instruction envelopes sent to the vision model.
package prompt

import (
	"profileai/internal/domain"
)

// UseCase identifies which template produced an envelope.
type UseCase string

const (
	UseStyle       UseCase = "style"
	UseComparison  UseCase = "comparison"
	UseTranslation UseCase = "translation"
	UseLab         UseCase = "prompt_lab"
)

// Output budgets per use case.
const (
	MaxTokensTranslation = 100
	MaxTokensReport      = 1500
	MaxTokensLab         = 1000
)

// Envelope is an immutable request for the inference gateway.
type Envelope struct {
	useCase     UseCase
	system      string
	instruction string
	images      []domain.UploadedImage
	maxTokens   int
}

func newEnvelope(useCase UseCase, system, instruction string, images []domain.UploadedImage, maxTokens int) Envelope {
	copied := make([]domain.UploadedImage, len(images))
	copy(copied, images)
	return Envelope{
		useCase:     useCase,
		system:      system,
		instruction: instruction,
		images:      copied,
		maxTokens:   maxTokens,
	}
}

func (e Envelope) UseCase() UseCase    { return e.useCase }
func (e Envelope) System() string      { return e.system }
func (e Envelope) Instruction() string { return e.instruction }
func (e Envelope) MaxTokens() int      { return e.maxTokens }

// Images returns a copy of the attached images in submission order.
func (e Envelope) Images() []domain.UploadedImage {
	out := make([]domain.UploadedImage, len(e.images))
	copy(out, e.images)
	return out
}
