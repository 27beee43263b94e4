package interfaces

import (
	"context"
	"io"
)

type SampleCVService interface {
	// Generate writes a demonstration CV PDF to w.
	Generate(ctx context.Context, w io.Writer) error
	// GenerateFile writes a demonstration CV PDF to the given path.
	GenerateFile(ctx context.Context, path string) error
}
