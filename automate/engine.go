// Package automate runs the Lua scripts behind the Automate menu.
package automate

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
)

//go:embed scripts/*.lua
var builtinScripts embed.FS

// ErrUnknownAction is returned by Run for names no script registered.
var ErrUnknownAction = errors.New("unknown action")

// Action is one Automate menu entry.
type Action struct {
	Name        string
	Description string
	Source      string // script that registered it
}

type action struct {
	Action
	fn *glua.LFunction
}

// Engine wraps gopher-lua. It is not safe for concurrent use; the session
// loop owns it.
type Engine struct {
	L          *glua.LState
	regexCache *lru.Cache[string, *regexp.Regexp]
	table      *glua.LTable
	host       Host

	// Engine owns callbacks, the timer service owns IDs and scheduling.
	callbacks map[int]*glua.LFunction

	actions []*action
	byName  map[string]*action
	loading string
}

// NewEngine creates an Engine bound to host. Call Init before use.
func NewEngine(host Host) *Engine {
	return &Engine{
		host:      host,
		callbacks: make(map[int]*glua.LFunction),
		byName:    make(map[string]*action),
	}
}

// Init creates a fresh VM, dropping every registered action and timer.
func (e *Engine) Init() error {
	if e.L != nil {
		e.L.Close()
	}
	e.L = glua.NewState()

	cache, err := lru.New[string, *regexp.Regexp](100)
	if err != nil {
		return fmt.Errorf("regex cache: %w", err)
	}
	e.regexCache = cache

	e.host.TimerCancelAll()
	e.callbacks = make(map[int]*glua.LFunction)
	e.actions = nil
	e.byName = make(map[string]*action)

	e.table = e.L.NewTable()
	e.L.SetGlobal("scythe", e.table)
	e.registerCoreFuncs()
	e.registerTimerFuncs()
	e.registerRegexFuncs()
	return nil
}

// Close releases the VM and cancels its timers.
func (e *Engine) Close() {
	e.host.TimerCancelAll()
	e.callbacks = nil
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// Boot initialises the VM, runs the built-in scripts in name order, then
// every *.lua in userDir. A broken user script is reported and skipped; a
// broken built-in is an error.
func (e *Engine) Boot(userDir string) error {
	if err := e.Init(); err != nil {
		return err
	}

	names, err := fs.Glob(builtinScripts, "scripts/*.lua")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		code, err := builtinScripts.ReadFile(name)
		if err != nil {
			return err
		}
		if err := e.DoString(filepath.Base(name), string(code)); err != nil {
			return fmt.Errorf("builtin %s: %w", name, err)
		}
	}

	if userDir == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(userDir, "*.lua"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		if err := e.DoFile(f); err != nil {
			log.Warn("automation script failed", "path", f, "err", err)
			e.host.Notify(fmt.Sprintf("Error in %s: %v", filepath.Base(f), err))
		}
	}
	return nil
}

// DoString executes code. name shows up in stack traces and as the action
// source.
func (e *Engine) DoString(name, code string) error {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	e.loading = name
	defer func() { e.loading = "" }()
	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// DoFile executes a script file with its directory on package.path.
func (e *Engine) DoFile(path string) error {
	path = expandTilde(path)
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	pkg, ok := e.L.GetGlobal("package").(*glua.LTable)
	if !ok {
		return errors.New("lua package table missing")
	}
	oldPath := e.L.GetField(pkg, "path").String()
	e.L.SetField(pkg, "path", glua.LString(filepath.Dir(abs)+"/?.lua;"+oldPath))
	defer e.L.SetField(pkg, "path", glua.LString(oldPath))

	e.loading = filepath.Base(abs)
	defer func() { e.loading = "" }()
	return e.L.DoFile(abs)
}

// Actions lists registered actions in registration order.
func (e *Engine) Actions() []Action {
	out := make([]Action, 0, len(e.actions))
	for _, a := range e.actions {
		out = append(out, a.Action)
	}
	return out
}

// Run invokes the named action. Script errors are returned, never raised.
func (e *Engine) Run(name string) error {
	if e.L == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	a, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	e.L.Push(a.fn)
	if err := e.L.PCall(0, 0, nil); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// OnTimer runs the callback of a fired timer.
func (e *Engine) OnTimer(id int, repeating bool) {
	if e.L == nil {
		return
	}
	fn, ok := e.callbacks[id]
	if !ok {
		return // cancelled, or from a previous VM
	}
	if !repeating {
		delete(e.callbacks, id)
	}
	e.L.Push(fn)
	if err := e.L.PCall(0, 0, nil); err != nil {
		e.host.Notify("timer: " + err.Error())
	}
}

// PendingCallbacks returns the number of live timer callbacks.
func (e *Engine) PendingCallbacks() int { return len(e.callbacks) }

func (e *Engine) register(name, desc string, fn *glua.LFunction) {
	a := &action{Action: Action{Name: name, Description: desc, Source: e.loading}, fn: fn}
	if old, ok := e.byName[name]; ok {
		// Later scripts override earlier ones in place.
		old.Action, old.fn = a.Action, fn
		return
	}
	e.byName[name] = a
	e.actions = append(e.actions, a)
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
