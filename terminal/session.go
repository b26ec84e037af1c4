// Package terminal runs shells on pseudo-terminals and keeps a VT screen
// model for each of them.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/hinshun/vt10x"
	"golang.org/x/sys/unix"

	"github.com/drake/scythe/event"
)

// ErrClosed is returned by Write and Resize after Close.
var ErrClosed = errors.New("terminal session closed")

// killGroup signals a process group. Tests replace it.
var killGroup = func(pid int, sig unix.Signal) error { return unix.Kill(-pid, sig) }

// Session is one shell process attached to a PTY.
type Session struct {
	id    string
	cmd   *exec.Cmd
	ptmx  *os.File
	grace time.Duration

	mu    sync.Mutex
	vt    vt10x.Terminal
	title string

	events chan<- event.Event
	dirty  atomic.Bool
	read   *atomic.Uint64

	done      chan struct{}
	exitCode  int
	closed    atomic.Bool
	closeOnce sync.Once
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PID returns the shell's process ID.
func (s *Session) PID() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Title returns the last OSC title the shell set.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Done is closed when the shell exits.
func (s *Session) Done() <-chan struct{} { return s.done }

// ExitCode is valid once Done is closed.
func (s *Session) ExitCode() int {
	<-s.done
	return s.exitCode
}

// Write sends input bytes to the shell.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	return s.ptmx.Write(p)
}

// Resize changes both the PTY window size and the screen model.
func (s *Session) Resize(cols, rows int) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if cols <= 0 || rows <= 0 || cols > 0xffff || rows > 0xffff {
		return fmt.Errorf("invalid size %dx%d", cols, rows)
	}
	s.mu.Lock()
	cur, curRows := s.vt.Size()
	if cur == cols && curRows == rows {
		s.mu.Unlock()
		return nil
	}
	s.vt.Resize(cols, rows)
	s.mu.Unlock()
	s.markDirty()

	return pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Cwd returns the shell's current working directory, or "" when it cannot
// be determined.
func (s *Session) Cwd() string {
	pid := s.PID()
	if pid == 0 {
		return ""
	}
	dir, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid))
	if err != nil {
		return ""
	}
	return dir
}

// Close hangs up the shell's process group and kills it if it is still
// around after the grace period. Close does not block.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		pid := s.PID()
		if pid == 0 || s.exited() {
			// The group ID may already belong to another process.
			_ = s.ptmx.Close()
			return
		}
		if err := killGroup(pid, unix.SIGHUP); err != nil && !errors.Is(err, unix.ESRCH) {
			log.Warn("hangup failed", "session", s.id, "pid", pid, "err", err)
		}
		go func() {
			select {
			case <-s.done:
			case <-time.After(s.grace):
				log.Debug("shell ignored hangup, killing", "session", s.id, "pid", pid)
				_ = killGroup(pid, unix.SIGKILL)
				<-s.done
			}
			_ = s.ptmx.Close()
		}()
	})
}

// exited reports whether the shell has been reaped.
func (s *Session) exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) markDirty() {
	if s.dirty.CompareAndSwap(false, true) {
		s.events <- event.Event{Type: event.TermOutput, Session: s.id}
	}
}

// readLoop pumps PTY output into the screen model until the shell exits.
func (s *Session) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.read.Add(uint64(n))
			s.mu.Lock()
			_, _ = s.vt.Write(buf[:n])
			title := strings.TrimSpace(s.vt.Title())
			changed := title != s.title
			s.title = title
			s.mu.Unlock()

			s.markDirty()
			if changed {
				s.events <- event.Event{Type: event.TermTitle, Session: s.id, Payload: title}
			}
		}
		if err != nil {
			break
		}
	}
	s.wait()
}

func (s *Session) wait() {
	code := 0
	if err := s.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	s.exitCode = code
	close(s.done)
	log.Debug("shell exited", "session", s.id, "code", code)
	s.events <- event.Event{Type: event.TermExit, Session: s.id, Code: code}
}
