package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/pickabook/pkb/internal/logging"
)

func TestNew_DefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Output: &buf})
	assert.NilError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.Assert(t, !strings.Contains(out, "hidden"))
	assert.Assert(t, strings.Contains(out, "shown"))
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "error", Verbose: true, Output: &buf})
	assert.NilError(t, err)

	logger.Debug("details")
	assert.Assert(t, strings.Contains(buf.String(), "details"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	assert.NilError(t, err)

	logger.Info("loaded")

	var entry map[string]any
	assert.NilError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, entry["msg"], "loaded")
	assert.Equal(t, entry["level"], "info")
}

func TestNew_Errors(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.ErrorContains(t, err, "parse log level")

	_, err = logging.New(logging.Options{Format: "xml"})
	assert.ErrorContains(t, err, "unknown log format")
}
