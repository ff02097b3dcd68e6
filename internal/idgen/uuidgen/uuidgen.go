package uuidgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Generator hands out random (version 4) UUIDs, optionally prefixed to hint at the record kind.
type Generator struct {
	prefix string
}

func New(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

func (g *Generator) GetID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return g.prefix + id.String(), nil
}
