package interfaces

import (
	"context"

	"github.com/sendblast/sendblast/internal/models"
)

type ParserService interface {
	// Extract returns every address-shaped token in the text, in order of
	// first appearance, duplicates included.
	Extract(text string) []string
	// Validate applies full structural validation to a single address.
	Validate(address string) bool
	// Deduplicate removes case-insensitive duplicates, keeping the first
	// occurrence and its casing. Returns the kept addresses and the number
	// of duplicates removed.
	Deduplicate(addresses []string) ([]string, int)
	// Parse runs the extract, deduplicate, validate pipeline.
	Parse(ctx context.Context, text string) *models.ParseOutcome
}
