package cmd

import (
	"bytes"
	"testing"

	"github.com/example/court-scheduler/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmdRequiresMode(t *testing.T) {
	c := newRunCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{})

	err := c.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--schedule")
	assert.Contains(t, err.Error(), "--preflight")
}

func TestResultError(t *testing.T) {
	// A failed run surfaces as an error return, never a direct exit, so
	// deferred cleanup (pool close) always executes.
	assert.NoError(t, resultError(pipeline.Result{Success: true}))

	err := resultError(pipeline.Result{Step: "authenticating", Error: "refresh token rejected"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authenticating")
	assert.Contains(t, err.Error(), "refresh token rejected")
}
