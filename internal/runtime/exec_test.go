package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunsShell(t *testing.T) {
	e := newExecutor(t.TempDir(), 0)
	out, err := e.run(context.Background(), "echo hello", "sh")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestExecutorReportsFailureInOutput(t *testing.T) {
	e := newExecutor("", 0)
	out, err := e.run(context.Background(), "exit 3", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "exited with error")
}

func TestExecutorRejectsUnknownLanguage(t *testing.T) {
	e := newExecutor("", 0)
	_, err := e.run(context.Background(), "whatever", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported execution language")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 3, EstimateTokens("hello, world"))
}
