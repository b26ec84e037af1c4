package terminal

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hinshun/vt10x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"

	"github.com/drake/scythe/event"
)

func feed(t *testing.T, cols, rows int, data string) vt10x.Terminal {
	t.Helper()
	vt := vt10x.New(vt10x.WithSize(cols, rows))
	_, err := vt.Write([]byte(data))
	require.NoError(t, err)
	return vt
}

func TestPlainTextHandlesCarriageReturnAndBackspace(t *testing.T) {
	vt := feed(t, 20, 4, "hello\r\nabc\rX\r\nfoo\bz")

	assert.Equal(t, "hello\nXbc\nfoz", plainText(vt))
}

func TestSnapshotGeometryAndCursor(t *testing.T) {
	vt := feed(t, 10, 3, "ab\r\ncd")

	scr := snapshot(vt, "title")
	require.Len(t, scr.Lines, 3)
	assert.Equal(t, 10, scr.Cols)
	assert.Equal(t, 3, scr.Rows)
	assert.Equal(t, 2, scr.CursorX)
	assert.Equal(t, 1, scr.CursorY)
	assert.Equal(t, "title", scr.Title)
	for _, line := range scr.Lines {
		assert.Equal(t, 10, len([]rune(line)), "unstyled rows are exactly cols wide")
	}
}

func TestStyledRowEmitsAndResetsSGR(t *testing.T) {
	vt := feed(t, 8, 1, "\x1b[1;31mR\x1b[0mn")

	row := styledRow(vt, 0, 8)
	// vt10x stores bold red as bright red.
	assert.True(t, strings.HasPrefix(row, "\x1b[0;1;38;5;9mR"), "got %q", row)
	assert.Contains(t, row, "\x1b[0mn")
	assert.True(t, strings.HasSuffix(row, " "), "plain tail needs no reset: %q", row)
}

func TestColorParam(t *testing.T) {
	assert.Equal(t, "", colorParam(vt10x.DefaultFG, vt10x.DefaultFG, 38))
	assert.Equal(t, "38;5;196", colorParam(196, vt10x.DefaultFG, 38))
	assert.Equal(t, "48;5;4", colorParam(4, vt10x.DefaultBG, 48))
	assert.Equal(t, "", colorParam(vt10x.DefaultBG, vt10x.DefaultBG, 48))
}

func waitFor(t *testing.T, ch <-chan event.Event, typ event.Type) event.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event of type %d", typ)
		}
	}
}

func TestProviderRunsShellAndReportsExit(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	events := make(chan event.Event, 256)
	p := NewProvider(Config{
		Shell: "/bin/sh",
		Args:  []string{"-c", "printf 'scythe-ok'; exit 3"},
		Cols:  40,
		Rows:  5,
	}, events)

	s, err := p.Spawn()
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())
	assert.Equal(t, 1, p.Stats().Alive)

	ev := waitFor(t, events, event.TermExit)
	assert.Equal(t, s.ID(), ev.Session)
	assert.Equal(t, 3, ev.Code)
	assert.Equal(t, 3, s.ExitCode())
	assert.Contains(t, s.Text(), "scythe-ok")
	assert.Positive(t, p.Stats().BytesRead)

	p.DestroySession(s)
	assert.Nil(t, p.Get(s.ID()))
	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseAfterExitSendsNoSignal(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	var signalled []unix.Signal
	orig := killGroup
	killGroup = func(pid int, sig unix.Signal) error {
		signalled = append(signalled, sig)
		return nil
	}
	t.Cleanup(func() { killGroup = orig })

	events := make(chan event.Event, 256)
	p := NewProvider(Config{Shell: "/bin/sh", Args: []string{"-c", "exit 0"}}, events)
	s, err := p.Spawn()
	require.NoError(t, err)
	waitFor(t, events, event.TermExit)

	s.Close()
	assert.Empty(t, signalled)
}

func TestSessionResizeUpdatesScreen(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	events := make(chan event.Event, 256)
	p := NewProvider(Config{Shell: "/bin/sh", Args: []string{"-c", "sleep 5"}}, events)
	s, err := p.Spawn()
	require.NoError(t, err)
	defer p.CloseAll()

	require.NoError(t, s.Resize(100, 30))
	scr := s.Screen()
	assert.Equal(t, 100, scr.Cols)
	assert.Equal(t, 30, scr.Rows)
	assert.Error(t, s.Resize(0, 10))
}
