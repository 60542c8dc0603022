package registry

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

// testModule is a minimal module for testing.
type testModule struct {
	info     plugin.PluginInfo
	initErr  error
	startErr error
	stopErr  error
	stopped  *[]string // shared slice to record stop order
	stops    *int32    // atomic counter for stop calls
}

func newTestModule(name string, deps ...string) *testModule {
	return &testModule{
		info: plugin.PluginInfo{
			Name:         name,
			Version:      "1.0.0",
			Description:  "test module " + name,
			Dependencies: deps,
		},
	}
}

func (m *testModule) Info() plugin.PluginInfo                             { return m.info }
func (m *testModule) Init(_ context.Context, _ plugin.Dependencies) error { return m.initErr }
func (m *testModule) Start(_ context.Context) error                       { return m.startErr }

func (m *testModule) Stop(_ context.Context) error {
	if m.stops != nil {
		atomic.AddInt32(m.stops, 1)
	}
	if m.stopped != nil {
		*m.stopped = append(*m.stopped, m.info.Name)
	}
	return m.stopErr
}

// httpModule implements both Plugin and HTTPProvider.
type httpModule struct {
	testModule
	routes []plugin.Route
}

func (m *httpModule) Routes() []plugin.Route { return m.routes }

// panicModule panics during Init.
type panicModule struct {
	testModule
}

func (m *panicModule) Init(_ context.Context, _ plugin.Dependencies) error {
	panic("module bug")
}

func testDeps() func(string) plugin.Dependencies {
	return func(name string) plugin.Dependencies {
		return plugin.Dependencies{Logger: zap.NewNop().Named(name)}
	}
}

func TestRegister(t *testing.T) {
	reg := New(zap.NewNop())

	m := newTestModule("vault")
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Duplicate registration should fail.
	if err := reg.Register(m); err == nil {
		t.Fatal("Register() expected error for duplicate, got nil")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	reg := New(zap.NewNop())
	m := &testModule{info: plugin.PluginInfo{Name: ""}}
	if err := reg.Register(m); err == nil {
		t.Fatal("Register() expected error for empty name, got nil")
	}
}

func TestValidateOrdersDependencies(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newTestModule("dashboard", "activity")) // dashboard depends on activity
	reg.Register(newTestModule("activity"))

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	all := reg.All()
	actIdx, dashIdx := -1, -1
	for i, p := range all {
		switch p.Info().Name {
		case "activity":
			actIdx = i
		case "dashboard":
			dashIdx = i
		}
	}
	if actIdx >= dashIdx {
		t.Errorf("expected activity (idx %d) before dashboard (idx %d)", actIdx, dashIdx)
	}
}

func TestValidateCycleDetection(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newTestModule("a", "b"))
	reg.Register(newTestModule("b", "a"))

	if err := reg.Validate(); err == nil {
		t.Fatal("Validate() expected cycle error, got nil")
	}
}

func TestValidateMissingRequiredDep(t *testing.T) {
	reg := New(zap.NewNop())
	m := newTestModule("a", "missing")
	m.info.Required = true
	reg.Register(m)

	if err := reg.Validate(); err == nil {
		t.Fatal("Validate() expected error for missing required dep, got nil")
	}
}

func TestValidateDisablesOptionalWithMissingDep(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newTestModule("a", "missing")) // optional, dep doesn't exist

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reg.IsDisabled("a") {
		t.Error("expected module 'a' to be disabled")
	}
}

func TestCascadeDisable(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newTestModule("a", "missing")) // disabled: missing dep
	reg.Register(newTestModule("b", "a"))       // depends on disabled a

	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reg.IsDisabled("a") {
		t.Error("expected 'a' to be disabled (missing dep)")
	}
	if !reg.IsDisabled("b") {
		t.Error("expected 'b' to be cascade disabled")
	}
}

func TestInitAllRequiredFails(t *testing.T) {
	reg := New(zap.NewNop())
	m := newTestModule("a")
	m.info.Required = true
	m.initErr = errors.New("init failed")
	reg.Register(m)
	reg.Validate()

	if err := reg.InitAll(context.Background(), testDeps()); err == nil {
		t.Fatal("InitAll() expected error for required module failure, got nil")
	}
}

func TestInitAllOptionalDisabledOnFailure(t *testing.T) {
	reg := New(zap.NewNop())
	m := newTestModule("a")
	m.initErr = errors.New("init failed")
	reg.Register(m)
	reg.Validate()

	if err := reg.InitAll(context.Background(), testDeps()); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if !reg.IsDisabled("a") {
		t.Error("expected optional module 'a' to be disabled after init failure")
	}
}

func TestInitAllRecoversFromPanic(t *testing.T) {
	reg := New(zap.NewNop())

	pm := &panicModule{testModule: *newTestModule("panicker")}
	normal := newTestModule("normal")
	reg.Register(pm)
	reg.Register(normal)
	reg.Validate()

	if err := reg.InitAll(context.Background(), testDeps()); err != nil {
		t.Fatalf("InitAll() error = %v, want nil (optional panic should not propagate)", err)
	}
	if !reg.IsDisabled("panicker") {
		t.Error("expected panicking optional module to be disabled")
	}
	if reg.IsDisabled("normal") {
		t.Error("expected normal module to remain active")
	}
}

func TestInitAllRequiredPanicIsError(t *testing.T) {
	reg := New(zap.NewNop())

	pm := &panicModule{testModule: *newTestModule("panicker")}
	pm.info.Required = true
	reg.Register(pm)
	reg.Validate()

	err := reg.InitAll(context.Background(), testDeps())
	if err == nil {
		t.Fatal("InitAll() expected error for required panicking module, got nil")
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("error = %q, want it to mention the panic", err)
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	var stopOrder []string
	reg := New(zap.NewNop())

	a := newTestModule("a")
	a.stopped = &stopOrder
	b := newTestModule("b", "a")
	b.stopped = &stopOrder
	c := newTestModule("c", "b")
	c.stopped = &stopOrder

	reg.Register(a)
	reg.Register(b)
	reg.Register(c)
	reg.Validate()

	ctx := context.Background()
	reg.InitAll(ctx, testDeps())
	reg.StartAll(ctx)
	reg.StopAll(ctx)

	want := []string{"c", "b", "a"}
	if len(stopOrder) != len(want) {
		t.Fatalf("stop order length = %d, want %d", len(stopOrder), len(want))
	}
	for i, name := range want {
		if stopOrder[i] != name {
			t.Errorf("stop order[%d] = %q, want %q", i, stopOrder[i], name)
		}
	}
}

func TestStopAllErrorDoesNotBlockOthers(t *testing.T) {
	var stops int32
	reg := New(zap.NewNop())

	for _, name := range []string{"a", "b", "c"} {
		m := newTestModule(name)
		m.stops = &stops
		m.stopErr = errors.New("stop failed")
		reg.Register(m)
	}
	reg.Validate()

	ctx := context.Background()
	reg.InitAll(ctx, testDeps())
	reg.StartAll(ctx)
	reg.StopAll(ctx)

	if stops != 3 {
		t.Errorf("stop count = %d, want 3 (all modules stop despite errors)", stops)
	}
}

func TestAllRoutes(t *testing.T) {
	reg := New(zap.NewNop())

	hm := &httpModule{
		testModule: *newTestModule("netscan"),
		routes:     []plugin.Route{{Method: "POST", Path: "/scan"}},
	}
	reg.Register(hm)
	reg.Register(newTestModule("noroutes"))
	reg.Validate()

	routes := reg.AllRoutes()
	if len(routes) != 1 {
		t.Fatalf("AllRoutes() returned %d module route sets, want 1", len(routes))
	}
	if _, ok := routes["netscan"]; !ok {
		t.Error("AllRoutes() missing 'netscan' routes")
	}
}

func TestGet(t *testing.T) {
	reg := New(zap.NewNop())
	reg.Register(newTestModule("auth"))
	reg.Validate()

	if _, ok := reg.Get("auth"); !ok {
		t.Error("Get('auth') returned false, want true")
	}
	if _, ok := reg.Get("nonexistent"); ok {
		t.Error("Get('nonexistent') returned true, want false")
	}
}
