package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PositionalJobPath(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse([]string{"job.hcl"}, out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	require.NotNil(t, config)

	assert.Equal(t, "job.hcl", config.JobPath)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, slog.LevelInfo, config.LogLevel)
	assert.Nil(t, config.FullReplaceOverride, "omitted flags must not override the job file")
	assert.Nil(t, config.PublishOverride)
}

func TestParse_JobFlagWins(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, _, err := Parse([]string{"--job", "a.hcl", "b.hcl"}, out)
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", config.JobPath)

	config, _, err = Parse([]string{"-j", "short.hcl"}, out)
	require.NoError(t, err)
	assert.Equal(t, "short.hcl", config.JobPath)
}

func TestParse_Overrides(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, _, err := Parse([]string{"--block", "quote_block", "--full-replace", "--publish", "job.hcl"}, out)
	require.NoError(t, err)

	assert.Equal(t, "quote_block", config.BlockOverride)
	require.NotNil(t, config.FullReplaceOverride)
	assert.True(t, *config.FullReplaceOverride)
	require.NotNil(t, config.PublishOverride)
	assert.True(t, *config.PublishOverride)
}

func TestParse_ExplicitFalseOverride(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, _, err := Parse([]string{"--full-replace=false", "job.hcl"}, out)
	require.NoError(t, err)

	require.NotNil(t, config.FullReplaceOverride, "an explicit =false is still an override")
	assert.False(t, *config.FullReplaceOverride)
}

func TestParse_NoArgsShowsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.True(t, strings.Contains(out.String(), "Usage"), "usage text should be printed")
}

func TestParse_InvalidLogSettings(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--log-format", "xml", "job.hcl"}, out)
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)

	_, _, err = Parse([]string{"--log-level", "loud", "job.hcl"}, out)
	require.Error(t, err)
}

func TestParse_LogLevelMapping(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, _, err := Parse([]string{"--log-level", "DEBUG", "job.hcl"}, out)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, config.LogLevel, "level names are case-insensitive")

	config, _, err = Parse([]string{"--log-level", "error", "job.hcl"}, out)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, config.LogLevel)
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
}
