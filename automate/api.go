package automate

import (
	"regexp"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/scythe/pane"
)

// registerCoreFuncs registers the scythe._* primitives wrapped by the prelude.
func (e *Engine) registerCoreFuncs() {
	// scythe._send(text): type into the focused terminal
	e.L.SetField(e.table, "_send", e.L.NewFunction(func(L *glua.LState) int {
		if err := e.host.Send(L.CheckString(1)); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}))

	// scythe._print(text): show a notice
	e.L.SetField(e.table, "_print", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Notify(L.CheckString(1))
		return 0
	}))

	// scythe._split(dir): split the focused pane, focus moves to the new one
	e.L.SetField(e.table, "_split", e.L.NewFunction(func(L *glua.LState) int {
		o, ok := pane.ParseOrientation(L.OptString(1, "h"))
		if !ok {
			L.ArgError(1, "expected \"h\" or \"v\"")
			return 0
		}
		if err := e.host.Split(o); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}))

	// scythe._new_tab()
	e.L.SetField(e.table, "_new_tab", e.L.NewFunction(func(L *glua.LState) int {
		if err := e.host.NewTab(); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}))

	// scythe._ask(prompt): hand a prompt to the AI panel
	e.L.SetField(e.table, "_ask", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Ask(L.CheckString(1))
		return 0
	}))

	// scythe._screen(): visible text of the focused terminal
	e.L.SetField(e.table, "_screen", e.L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LString(e.host.Screen()))
		return 1
	}))

	// scythe._register(name, description, fn): add an Automate menu entry
	e.L.SetField(e.table, "_register", e.L.NewFunction(func(L *glua.LState) int {
		name := L.CheckString(1)
		desc := L.OptString(2, "")
		fn := L.CheckFunction(3)
		e.register(name, desc, fn)
		return 0
	}))
}

// registerTimerFuncs registers scythe._timer.*.
func (e *Engine) registerTimerFuncs() {
	t := e.L.NewTable()
	e.L.SetField(e.table, "_timer", t)

	// scythe._timer.after(seconds, fn): one-shot, returns ID
	e.L.SetField(t, "after", e.L.NewFunction(func(L *glua.LState) int {
		d := toDuration(L.CheckNumber(1))
		fn := L.CheckFunction(2)
		id := e.host.TimerAfter(d)
		if id != 0 {
			e.callbacks[id] = fn
		}
		L.Push(glua.LNumber(id))
		return 1
	}))

	// scythe._timer.every(seconds, fn): repeating, returns ID
	e.L.SetField(t, "every", e.L.NewFunction(func(L *glua.LState) int {
		d := toDuration(L.CheckNumber(1))
		fn := L.CheckFunction(2)
		id := e.host.TimerEvery(d)
		if id != 0 {
			e.callbacks[id] = fn
		}
		L.Push(glua.LNumber(id))
		return 1
	}))

	// scythe._timer.cancel(id)
	e.L.SetField(t, "cancel", e.L.NewFunction(func(L *glua.LState) int {
		id := int(L.CheckNumber(1))
		if _, ok := e.callbacks[id]; ok {
			delete(e.callbacks, id)
			e.host.TimerCancel(id)
		}
		return 0
	}))
}

func toDuration(seconds glua.LNumber) time.Duration {
	return time.Duration(float64(seconds) * float64(time.Second))
}

const regexTypeName = "scythe.Regex"

// registerRegexFuncs registers scythe._regex.compile, backed by an LRU cache
// so patterns used from timers are compiled once.
func (e *Engine) registerRegexFuncs() {
	mt := e.L.NewTypeMetatable(regexTypeName)
	e.L.SetField(mt, "__index", e.L.NewFunction(regexIndex))

	t := e.L.NewTable()
	e.L.SetField(e.table, "_regex", t)

	e.L.SetField(t, "compile", e.L.NewFunction(func(L *glua.LState) int {
		pattern := L.CheckString(1)
		re, ok := e.regexCache.Get(pattern)
		if !ok {
			var err error
			re, err = regexp.Compile(pattern)
			if err != nil {
				L.Push(glua.LNil)
				L.Push(glua.LString(err.Error()))
				return 2
			}
			e.regexCache.Add(pattern, re)
		}
		ud := L.NewUserData()
		ud.Value = re
		L.SetMetatable(ud, L.GetTypeMetatable(regexTypeName))
		L.Push(ud)
		return 1
	}))
}

// regexIndex serves re:match(text) and re.pattern.
func regexIndex(L *glua.LState) int {
	re, ok := L.CheckUserData(1).Value.(*regexp.Regexp)
	if !ok {
		L.ArgError(1, "regex expected")
		return 0
	}
	switch L.CheckString(2) {
	case "match":
		L.Push(L.NewFunction(func(L *glua.LState) int {
			// method call: self is argument 1
			m := re.FindStringSubmatch(L.CheckString(2))
			if m == nil {
				L.Push(glua.LNil)
				return 1
			}
			tbl := L.NewTable()
			for i, s := range m {
				tbl.RawSetInt(i+1, glua.LString(s))
			}
			L.Push(tbl)
			return 1
		}))
		return 1
	case "pattern":
		L.Push(glua.LString(re.String()))
		return 1
	}
	return 0
}
