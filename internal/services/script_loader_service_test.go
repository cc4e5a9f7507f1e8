package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/internal/testutils"
)

func TestScriptLoaderService_Scope(t *testing.T) {
	console := testutils.NewRecordingConsole()
	loader := NewScriptLoaderService(console)

	scope := map[string]any{"base": int64(40)}
	err := loader.LoadSubScript(context.Background(), `
		var answer = base + 2;
		base = 1;
		function greet(name) { return "hi " + name; }
		console.log("loaded", answer);
	`, scope)
	require.NoError(t, err)

	assert.Equal(t, int64(42), scope["answer"])
	assert.Equal(t, int64(1), scope["base"])
	assert.Contains(t, scope, "greet")
	assert.NotContains(t, scope, "console")
	assert.Equal(t, []string{"loaded 42"}, console.Messages())
}

func TestScriptLoaderService_Errors(t *testing.T) {
	loader := NewScriptLoaderService(nil)

	err := loader.LoadSubScript(context.Background(), `throw new Error("bad")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	err = loader.LoadSubScript(context.Background(), `var x = ;`, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = loader.LoadSubScript(ctx, `for (;;) {}`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}
