package spinner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
)

func TestRun_ReturnsWorkResult(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("boom")

	err := Run(context.Background(), "loading", Options{Output: &out}, func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = Run(context.Background(), "loading", Options{Output: &out}, func(context.Context) error {
		return nil
	})
	assert.NilError(t, err)
}

func TestRun_Disabled(t *testing.T) {
	var out bytes.Buffer
	called := false

	err := Run(context.Background(), "loading", Options{Output: &out, Disabled: true}, func(context.Context) error {
		called = true
		return nil
	})
	assert.NilError(t, err)
	assert.Assert(t, called)
	assert.Equal(t, out.Len(), 0)
}

func TestModel_QuitsWhenDone(t *testing.T) {
	m := newModel("loading")
	assert.Assert(t, m.View() != "")

	next, cmd := m.Update(doneMsg{})
	assert.Assert(t, cmd != nil)
	assert.Equal(t, next.(model).View(), "")
}

func TestModel_CtrlCInterrupts(t *testing.T) {
	next, cmd := newModel("loading").Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Assert(t, cmd != nil)
	assert.Assert(t, next.(model).interrupted)
}

func TestIsTerminal(t *testing.T) {
	assert.Assert(t, !IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NilError(t, err)
	defer f.Close()
	assert.Assert(t, !IsTerminal(f))
}
