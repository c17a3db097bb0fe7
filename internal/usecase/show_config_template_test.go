package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
)

func TestShowConfigTemplate_Execute(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		out, err := NewShowConfigTemplate().Execute(context.Background(), ShowConfigTemplateInput{})

		require.NoError(t, err)
		assert.Contains(t, out.Template, "[identity]")
		assert.Contains(t, out.Template, "[store]")
	})

	t.Run("renders given values", func(t *testing.T) {
		cfg := domain.NewDefaultConfig()
		cfg.Identity.URN = "did:key:z6MkAlice"

		out, err := NewShowConfigTemplate().Execute(context.Background(), ShowConfigTemplateInput{Config: cfg})

		require.NoError(t, err)
		assert.Contains(t, out.Template, "did:key:z6MkAlice")
	})
}
