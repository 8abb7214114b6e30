package speech

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// phonemeDTO mirrors Phoneme for struct-tag validation; go-playground's
// validator operates on exported struct fields, so commands that carry
// caller-supplied strings are checked through one of these by Validate.
type phonemeDTO struct {
	IPA          string `validate:"required"`
	FallbackText string `validate:"required"`
}

var validate = validator.New()

// Validate checks structural constraints on commands that carry caller
// strings. Numeric commands (Break, Pitch, Rate, Volume, Index) have no
// constructor-time invariant beyond their Go types and are not validated
// here; unknown multipliers or extreme Break durations are a converter-time
// (not sequence-time) concern per the mapping table.
func (i Item) Validate() error {
	switch c := i.Command.(type) {
	case Phoneme:
		dto := phonemeDTO{IPA: c.IPA, FallbackText: c.FallbackText}
		if err := validate.Struct(dto); err != nil {
			return fmt.Errorf("invalid phoneme command: %w", err)
		}
	}
	return nil
}

// Validate checks every item in the sequence.
func (s Sequence) Validate() error {
	for idx, item := range s {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
	}
	return nil
}
