package logsvc

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/nuvatw/nuva-club/core"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(buf, core.NewTestConfig())
	l.Enable(false)
	return l
}

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Error("saving post",
		errors.New("disk full"),
		map[string]interface{}{"post": "p-1"},
		core.Person{ID: "u-1", Username: "ada"},
		core.Person{ID: "u-2"},
	)
	out := buf.String()
	assert.Contains(t, out, "saving post")
	assert.Contains(t, out, "err=\"disk full")
	assert.Contains(t, out, "TestRollbarLogger", "stack trace")
	assert.Contains(t, out, "post=p-1")
	assert.Contains(t, out, "user=u-1")
	assert.NotContains(t, out, "u-2")

	buf.Reset()
	l.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestRollbarLoggerFatal(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	var code int
	l.exit = func(c int) { code = c }

	l.Fatal("boom")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "boom")
}
