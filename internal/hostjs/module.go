package hostjs

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/codec"
	"github.com/roach88/hostbridge/internal/ir"
)

// ModuleName is the name scripts pass to require.
const ModuleName = "hostbridge"

// Require returns a loader that installs m's exports. Register it with
// require.Registry.RegisterNativeModule.
//
// Every export converts its arguments, runs under bridge.Catch and throws a
// JS Error carrying the host message on failure.
func Require(m *bridge.Module, opts ...RequireOption) require.ModuleLoader {
	return func(rt *goja.Runtime, module *goja.Object) {
		b := &binding{rt: rt, m: m}
		for _, opt := range opts {
			opt(b)
		}

		exports := module.Get("exports").ToObject(rt)
		_ = exports.Set("greet", b.greet)
		_ = exports.Set("parseText", b.parseText)
		_ = exports.Set("renderText", b.renderText)
		_ = exports.Set("scheduleTask", b.scheduleTask)
		_ = exports.Set("runOperations", b.runOperations)
		_ = exports.Set("EventEmitter", b.newEmitter)
	}
}

// RequireOption configures the installed exports.
type RequireOption func(*binding)

// WithUncaughtHandler receives exceptions thrown by completion callbacks.
// Without one they are dropped.
func WithUncaughtHandler(fn func(error)) RequireOption {
	return func(b *binding) {
		b.onUncaught = fn
	}
}

// WithEmitterHook observes every emitter a script creates.
func WithEmitterHook(fn func(*bridge.Emitter)) RequireOption {
	return func(b *binding) {
		b.onEmitter = fn
	}
}

type binding struct {
	rt         *goja.Runtime
	m          *bridge.Module
	onUncaught func(error)
	onEmitter  func(*bridge.Emitter)
}

func (b *binding) greet(call goja.FunctionCall) goja.Value {
	var out []byte
	b.check(bridge.Catch("greet", func() error {
		arg, err := ToValue(b.rt, call.Argument(0))
		if err != nil {
			return err
		}
		out, err = b.m.Greet(arg)
		return err
	}))
	return Bytes(b.rt, out)
}

func (b *binding) parseText(call goja.FunctionCall) goja.Value {
	var out ir.Value
	b.check(bridge.Catch("parseText", func() error {
		arg, err := ToValue(b.rt, call.Argument(0))
		if err != nil {
			return err
		}
		out, err = b.m.ParseText(arg)
		return err
	}))
	return FromValue(b.rt, out)
}

func (b *binding) renderText(call goja.FunctionCall) goja.Value {
	var out string
	b.check(bridge.Catch("renderText", func() error {
		arg, err := ToValue(b.rt, call.Argument(0))
		if err != nil {
			return err
		}
		out, err = b.m.RenderText(arg)
		return err
	}))
	return b.rt.ToValue(out)
}

func (b *binding) runOperations(call goja.FunctionCall) goja.Value {
	b.check(bridge.Catch("runOperations", func() error {
		arg, err := ToValue(b.rt, call.Argument(0))
		if err != nil {
			return err
		}
		return b.m.RunOperations(arg)
	}))
	return goja.Undefined()
}

func (b *binding) scheduleTask(call goja.FunctionCall) goja.Value {
	cb := b.callback(call.Argument(0))
	b.m.ScheduleTask(b.complete(cb))
	return goja.Undefined()
}

// newEmitter backs `new EventEmitter()`.
func (b *binding) newEmitter(call goja.ConstructorCall) *goja.Object {
	em := b.m.NewEmitter()
	if b.onEmitter != nil {
		b.onEmitter(em)
	}

	obj := call.This
	_ = obj.Set("poll", func(c goja.FunctionCall) goja.Value {
		cb := b.callback(c.Argument(0))
		em.Poll(b.complete(cb))
		return goja.Undefined()
	})
	_ = obj.Set("shutdown", func(goja.FunctionCall) goja.Value {
		em.Shutdown()
		return goja.Undefined()
	})
	return obj
}

// callback asserts that v is callable, throwing otherwise.
func (b *binding) callback(v goja.Value) goja.Callable {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		found := "undefined"
		if arg, err := ToValue(b.rt, v); err == nil {
			found = ir.KindOf(arg)
		}
		b.check(bridge.NewHostError(codec.NewTypeMismatch(nil, "function", found)))
	}
	return fn
}

// complete adapts a JS callback to a bridge.Completion. It runs on the loop:
// cb(null, value) on success, cb(err) on failure.
func (b *binding) complete(cb goja.Callable) bridge.Completion {
	return func(err error, value ir.Value) {
		var callErr error
		if err != nil {
			_, callErr = cb(goja.Undefined(), b.newError(bridge.Message(err)))
		} else {
			_, callErr = cb(goja.Undefined(), goja.Null(), FromValue(b.rt, value))
		}
		if callErr != nil && b.onUncaught != nil {
			b.onUncaught(callErr)
		}
	}
}

// check throws err into the script as an Error.
func (b *binding) check(err error) {
	if err == nil {
		return
	}
	panic(b.newError(bridge.Message(err)))
}

func (b *binding) newError(msg string) *goja.Object {
	ctor, ok := goja.AssertConstructor(b.rt.Get("Error"))
	if !ok {
		return b.rt.NewTypeError(msg)
	}
	obj, err := ctor(nil, b.rt.ToValue(msg))
	if err != nil {
		return b.rt.NewTypeError(msg)
	}
	return obj
}
