package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "clip", "a.mp4")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "clip=a.mp4")
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New(Options{Level: "chatty", Output: &bytes.Buffer{}})
	assert.Equal(t, hclog.Info, logger.GetLevel())
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Name: "test", Level: "debug", JSON: true, Output: &buf})
	logger.Debug("probe", "path", "/x.mp3")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "probe", line["@message"])
	assert.Equal(t, "/x.mp3", line["path"])
	assert.Equal(t, "test", line["@module"])
}

func TestOrNull(t *testing.T) {
	assert.NotNil(t, OrNull(nil))

	logger := hclog.NewNullLogger()
	assert.Equal(t, logger, OrNull(logger))
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("debug"))
	assert.True(t, ValidLevel("ERROR"))
	assert.False(t, ValidLevel("loud"))
}
