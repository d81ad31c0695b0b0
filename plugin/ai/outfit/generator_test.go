package outfit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/closetmind/internal/errors"
)

func dinnerContext() Context {
	temperature := 22.0
	return Context{
		Schedule:    "dinner with friends at a restaurant tonight",
		Weather:     &Weather{Temperature: &temperature, Condition: "clear"},
		Preferences: "monochrome, semi-formal",
	}
}

func TestQueryGenerator_Generate(t *testing.T) {
	llm := &stylistLLM{queries: `{"tops": "black silk shirt", "bottoms": "black slacks", "outerwear": null, "shoes": "black leather loafers", "reason": "Monochrome and semi-formal for a warm evening."}`}
	g := NewQueryGenerator(llm)

	q, err := g.Generate(context.Background(), dinnerContext())
	require.NoError(t, err)
	require.NotNil(t, q.Tops)
	assert.Equal(t, "black silk shirt", *q.Tops)
	assert.Equal(t, "black slacks", *q.Bottoms)
	assert.Nil(t, q.Outerwear)
	assert.Equal(t, "black leather loafers", *q.Shoes)
	assert.NotEmpty(t, q.Reason)

	// The situation reaches the model as JSON.
	assert.Contains(t, llm.prompts[0], `"preferences": "monochrome, semi-formal"`)
	assert.Contains(t, llm.prompts[0], `"temperature": 22`)
}

func TestQueryGenerator_ParseVariants(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
	}{
		{"fenced", "```json\n{\"tops\":\"white tee\",\"bottoms\":\"jeans\",\"outerwear\":null,\"shoes\":\"sneakers\",\"reason\":\"casual\"}\n```", false},
		{"extra key ignored", `{"tops":"white tee","bottoms":null,"outerwear":null,"shoes":null,"reason":"r","accessory":"cap"}`, false},
		{"missing key", `{"tops":"white tee","bottoms":"jeans","shoes":"sneakers","reason":"r"}`, true},
		{"wrong type", `{"tops":5,"bottoms":"jeans","outerwear":null,"shoes":"sneakers","reason":"r"}`, true},
		{"null reason", `{"tops":"tee","bottoms":"jeans","outerwear":null,"shoes":"sneakers","reason":null}`, true},
		{"reason is a number", `{"tops":"tee","bottoms":"jeans","outerwear":null,"shoes":"sneakers","reason":7}`, true},
		{"blank reason", `{"tops":"tee","bottoms":"jeans","outerwear":null,"shoes":"sneakers","reason":"  "}`, true},
		{"nothing to wear", `{"tops":null,"bottoms":"","outerwear":null,"shoes":null,"reason":"r"}`, true},
		{"prose", "Sure! Wear a black shirt.", true},
		{"array", `[{"tops":"tee"}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewQueryGenerator(&stylistLLM{queries: tt.response})
			q, err := g.Generate(context.Background(), dinnerContext())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeGenerationFailed))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, q.Tops)
		})
	}
}

func TestQueryGenerator_Errors(t *testing.T) {
	g := NewQueryGenerator(&stylistLLM{err: errors.New("503 Service Unavailable")})
	_, err := g.Generate(context.Background(), dinnerContext())
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeGenerationFailed))

	llm := &stylistLLM{queries: `{}`}
	_, err = NewQueryGenerator(llm).Generate(context.Background(), Context{})
	assert.True(t, aierrors.IsCode(err, aierrors.ErrCodeInvalidArgument))
	assert.Zero(t, llm.calls)
}
