// Package mocks provides scripted test doubles for the browser driver,
// credential source, and template store.
//
//	drv := mocks.NewDriver()
//	drv.SetElementPresent("#login", true)
//	drv.FailOn("click", "#broken", errors.New("no such element"))
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/browserflow/driver"
)

// Call records one driver invocation.
type Call struct {
	Op   string
	Args []string
}

// Driver is a scripted driver.Driver. Operations succeed by default;
// failures and probe results are injected per selector.
type Driver struct {
	mu sync.Mutex

	calls    []Call
	presence map[string]bool
	scripts  map[string]any
	failures map[string]error
	quitErr  error
	quits    int
}

var _ driver.Driver = (*Driver)(nil)

// NewDriver returns a driver where every operation succeeds.
func NewDriver() *Driver {
	return &Driver{
		presence: make(map[string]bool),
		scripts:  make(map[string]any),
		failures: make(map[string]error),
	}
}

// SetElementPresent scripts IsElementPresent for a selector. Unscripted
// selectors report absent.
func (d *Driver) SetElementPresent(selector string, present bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presence[selector] = present
}

// SetScriptResult scripts ExecuteScript's return value for a script.
func (d *Driver) SetScriptResult(script string, result any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts[script] = result
}

// FailOn injects an error for one operation and argument. Ops: "get",
// "click", "type", "screenshot", "present", "script".
func (d *Driver) FailOn(op, arg string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op+"|"+arg] = err
}

// SetQuitError makes Quit return err.
func (d *Driver) SetQuitError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quitErr = err
}

// Calls returns the recorded invocations in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call{}, d.calls...)
}

// CallsTo returns how many times op was invoked.
func (d *Driver) CallsTo(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// QuitCount returns how many times Quit was called.
func (d *Driver) QuitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

func (d *Driver) record(op string, args ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Op: op, Args: args})
	if len(args) > 0 {
		if err, ok := d.failures[op+"|"+args[0]]; ok {
			return err
		}
	}
	return nil
}

func (d *Driver) Get(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.record("get", url)
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.record("click", selector)
}

func (d *Driver) TypeText(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.record("type", selector, text)
}

func (d *Driver) TakeScreenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.record("screenshot", path)
}

func (d *Driver) IsElementPresent(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := d.record("present", selector); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presence[selector], nil
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.record("script", script); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if result, ok := d.scripts[script]; ok {
		return result, nil
	}
	return nil, nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return d.quitErr
}

// FailingFactory is a service.DriverFactory whose provisioning always
// fails.
type FailingFactory struct {
	Err error
}

func (f *FailingFactory) NewDriver(ctx context.Context) (driver.Driver, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, fmt.Errorf("driver unavailable")
}

// StaticFactory is a service.DriverFactory returning a fixed driver.
type StaticFactory struct {
	Driver driver.Driver
}

func (f *StaticFactory) NewDriver(ctx context.Context) (driver.Driver, error) {
	return f.Driver, nil
}
