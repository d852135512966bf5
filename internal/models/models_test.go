package models

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifc"
)

const waitTimeout = 2 * time.Second

type fakeLoader struct {
	mu      sync.Mutex
	calls   map[string]int
	gates   map[string]chan struct{}
	errs    map[string]error
	started chan string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		calls:   make(map[string]int),
		gates:   make(map[string]chan struct{}),
		errs:    make(map[string]error),
		started: make(chan string, 16),
	}
}

// hold makes loads of id block until release is called
func (l *fakeLoader) hold(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gates[id] = make(chan struct{})
}

func (l *fakeLoader) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.gates[id])
	delete(l.gates, id)
}

func (l *fakeLoader) fail(id string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.errs, id)
		return
	}
	l.errs[id] = err
}

func (l *fakeLoader) count(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

func (l *fakeLoader) Load(ctx context.Context, id string) (*ifc.Model, error) {
	l.mu.Lock()
	l.calls[id]++
	gate := l.gates[id]
	err := l.errs[id]
	l.mu.Unlock()

	l.started <- id
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	tri := geometry.NewTriangle(
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(0, 1, 0),
	)
	return ifc.NewModel("IFC4", []ifc.Mesh{{Type: "IFCWALL", Triangles: []geometry.Triangle{tri}}}), nil
}

// waitStarted blocks until the loader was entered for id
func (l *fakeLoader) waitStarted(t *testing.T, id string) {
	t.Helper()
	select {
	case got := <-l.started:
		require.Equal(t, id, got)
	case <-time.After(waitTimeout):
		t.Fatalf("load of %s did not start", id)
	}
}

type fakeScene struct {
	mu      sync.Mutex
	records map[string]*Record
	adds    map[string]int
	removes map[string]int
}

func newFakeScene() *fakeScene {
	return &fakeScene{
		records: make(map[string]*Record),
		adds:    make(map[string]int),
		removes: make(map[string]int),
	}
}

func (s *fakeScene) Add(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
	s.adds[r.ID]++
}

func (s *fakeScene) Remove(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, r.ID)
	s.removes[r.ID]++
}

func (s *fakeScene) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

func (s *fakeScene) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *fakeScene) counts(id string) (adds, removes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adds[id], s.removes[id]
}

type fakeIndicator struct {
	mu      sync.Mutex
	visible bool
	shows   int
	hides   int
}

func (i *fakeIndicator) Show() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.visible = true
	i.shows++
}

func (i *fakeIndicator) Hide() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.visible = false
	i.hides++
}

func (i *fakeIndicator) isVisible() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.visible
}

type fixture struct {
	loader     *fakeLoader
	scene      *fakeScene
	indicator  *fakeIndicator
	controller *Controller
	joined     chan string
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		loader:    newFakeLoader(),
		scene:     newFakeScene(),
		indicator: &fakeIndicator{},
		joined:    make(chan string, 16),
	}
	f.controller = NewController(f.loader, f.scene, f.indicator, zap.NewNop(), opts)
	f.controller.joined = func(id string) { f.joined <- id }
	return f
}

// waitJoined blocks until a second caller waits on the in-flight load of id
func (f *fixture) waitJoined(t *testing.T, id string) {
	t.Helper()
	select {
	case got := <-f.joined:
		require.Equal(t, id, got)
	case <-time.After(waitTimeout):
		t.Fatalf("no caller joined the load of %s", id)
	}
}

func TestDeactivateNeverActivatedIsNoop(t *testing.T) {
	f := newFixture(Options{})
	f.controller.Register("A-Arch.ifc", Unknown)

	f.controller.Deactivate("A-Arch.ifc")
	f.controller.Deactivate("unknown.ifc")

	assert.Equal(t, 0, f.scene.len())
	adds, removes := f.scene.counts("A-Arch.ifc")
	assert.Zero(t, adds)
	assert.Zero(t, removes)
	assert.Zero(t, f.loader.count("A-Arch.ifc"))
	assert.Equal(t, []string{"A-Arch.ifc"}, f.controller.IDs())
}

func TestActivateTwiceLoadsOnce(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	require.NoError(t, f.controller.Activate(ctx, "X.ifc"))
	require.NoError(t, f.controller.Activate(ctx, "X.ifc"))

	assert.Equal(t, 1, f.loader.count("X.ifc"))
	adds, _ := f.scene.counts("X.ifc")
	assert.Equal(t, 1, adds)
	assert.True(t, f.controller.Visible("X.ifc"))

	record, ok := f.controller.Cached("X.ifc")
	require.True(t, ok)
	assert.Equal(t, "X.ifc", record.ID)
	assert.Equal(t, 1, record.Model.TriangleCount())
}

func TestToggleEvenTimesRestoresVisibility(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	toggle, created := f.controller.Register("Y-CON.ifc", Unknown)
	require.True(t, created)
	require.False(t, toggle.Active())

	for i := 0; i < 4; i++ {
		require.NoError(t, f.controller.Toggle(ctx, toggle))
	}

	assert.False(t, toggle.Active())
	assert.False(t, f.controller.Visible("Y-CON.ifc"))
	assert.False(t, f.scene.has("Y-CON.ifc"))
	assert.Equal(t, 1, f.loader.count("Y-CON.ifc"))
	_, cached := f.controller.Cached("Y-CON.ifc")
	assert.True(t, cached)

	adds, removes := f.scene.counts("Y-CON.ifc")
	assert.Equal(t, 2, adds)
	assert.Equal(t, 2, removes)
}

func TestRecordStyleByDiscipline(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	tests := []struct {
		id          string
		discipline  Discipline
		transparent bool
		depthWrite  bool
		offset      DepthOffset
		hex         string
	}{
		{"X-Arch.ifc", Architecture, true, false, DepthOffset{1, 1}, "#E0C9A6"},
		{"Y-CON.ifc", Structural, false, true, DepthOffset{2, 2}, "#6C8EBF"},
		{"Z-HVAC.ifc", HVAC, false, true, DepthOffset{3, 3}, "#F28C28"},
		{"site.ifc", Unknown, false, true, DepthOffset{0, 0}, "#FFFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			require.NoError(t, f.controller.Activate(ctx, tt.id))
			record, ok := f.controller.Cached(tt.id)
			require.True(t, ok)

			assert.Equal(t, tt.discipline, record.Discipline)
			assert.Equal(t, tt.transparent, record.Material.Transparent)
			assert.Equal(t, tt.depthWrite, record.Material.DepthWrite)
			assert.Equal(t, tt.offset, record.Material.DepthOffset)
			assert.Equal(t, tt.hex, record.Material.Hex())
			if tt.transparent {
				assert.Less(t, record.Material.Opacity, 1.0)
			} else {
				assert.Equal(t, 1.0, record.Material.Opacity)
			}
		})
	}
}

func TestRegisteredDisciplineOverridesIdentifier(t *testing.T) {
	f := newFixture(Options{})

	_, created := f.controller.Register("pipes.ifc", HVAC)
	require.True(t, created)
	_, created = f.controller.Register("pipes.ifc", Structural)
	assert.False(t, created, "second registration keeps the first discipline")

	require.NoError(t, f.controller.Activate(context.Background(), "pipes.ifc"))
	record, ok := f.controller.Cached("pipes.ifc")
	require.True(t, ok)
	assert.Equal(t, HVAC, record.Discipline)
	assert.Equal(t, StyleFor(HVAC), record.Material)
}

func TestRegisterAsKeepsUnknown(t *testing.T) {
	f := newFixture(Options{})

	_, created := f.controller.RegisterAs("X-Arch.ifc", Unknown)
	require.True(t, created)
	assert.Equal(t, Unknown, f.controller.Discipline("X-Arch.ifc"))

	f.controller.Register("Y-CON.ifc", Unknown)
	assert.Equal(t, Structural, f.controller.Discipline("Y-CON.ifc"))

	require.NoError(t, f.controller.Activate(context.Background(), "X-Arch.ifc"))
	record, ok := f.controller.Cached("X-Arch.ifc")
	require.True(t, ok)
	assert.Equal(t, StyleFor(Unknown), record.Material)
}

// an active model that is not visible yet has no error until its load fails
func TestLastErrorOnlyAfterFailedLoad(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	toggle, _ := f.controller.Register("slow.ifc", Unknown)
	f.loader.hold("slow.ifc")
	f.loader.fail("slow.ifc", errors.New("timeout"))

	toggle.SetActive(true)
	assert.NoError(t, f.controller.LastError("slow.ifc"), "activated but not started")

	done := make(chan error, 1)
	go func() { done <- f.controller.Activate(ctx, "slow.ifc") }()
	f.loader.waitStarted(t, "slow.ifc")
	assert.False(t, f.controller.Visible("slow.ifc"))
	assert.NoError(t, f.controller.LastError("slow.ifc"), "load still running")

	f.loader.release("slow.ifc")
	require.Error(t, <-done)
	assert.Error(t, f.controller.LastError("slow.ifc"))
	assert.NoError(t, f.controller.LastError("never-registered.ifc"))
}

// three initial loads run side by side and end up in the scene
func TestActivateAllLoadsConcurrently(t *testing.T) {
	f := newFixture(Options{})
	ids := []string{"X-Arch.ifc", "Y-CON.ifc", "Z-HVAC.ifc"}
	for _, id := range ids {
		f.controller.Register(id, Unknown)
		f.loader.hold(id)
	}

	done := make(chan error, 1)
	go func() { done <- f.controller.ActivateAll(context.Background()) }()

	// every load must start before any of them is allowed to finish
	started := map[string]bool{}
	for range ids {
		select {
		case id := <-f.loader.started:
			started[id] = true
		case <-time.After(waitTimeout):
			t.Fatal("loads did not start concurrently")
		}
	}
	assert.Len(t, started, 3)
	assert.True(t, f.indicator.isVisible())

	for _, id := range ids {
		f.loader.release(id)
	}
	require.NoError(t, <-done)

	assert.Equal(t, 3, f.scene.len())
	for _, id := range ids {
		assert.True(t, f.scene.has(id), id)
		assert.Equal(t, 1, f.loader.count(id), id)
	}
	for _, toggle := range f.controller.Toggles() {
		assert.True(t, toggle.Active(), toggle.ID)
	}
	assert.False(t, f.indicator.isVisible())

	arch, _ := f.controller.Cached("X-Arch.ifc")
	assert.True(t, arch.Material.Transparent)
	con, _ := f.controller.Cached("Y-CON.ifc")
	assert.Equal(t, DepthOffset{2, 2}, con.Material.DepthOffset)
	hvac, _ := f.controller.Cached("Z-HVAC.ifc")
	assert.Equal(t, DepthOffset{3, 3}, hvac.Material.DepthOffset)
}

func TestActivateAllReturnsFirstFailure(t *testing.T) {
	f := newFixture(Options{})
	boom := errors.New("boom")
	f.controller.Register("good.ifc", Unknown)
	f.controller.Register("bad.ifc", Unknown)
	f.loader.fail("bad.ifc", boom)

	err := f.controller.ActivateAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, f.controller.Visible("good.ifc"))
	assert.False(t, f.controller.Visible("bad.ifc"))
}

func TestDeactivateThenReactivateUsesCache(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	require.NoError(t, f.controller.Activate(ctx, "Y-CON.ifc"))

	f.controller.Deactivate("Y-CON.ifc")
	assert.False(t, f.scene.has("Y-CON.ifc"))
	require.NoError(t, f.controller.Activate(ctx, "Y-CON.ifc"))

	assert.True(t, f.scene.has("Y-CON.ifc"))
	assert.Equal(t, 1, f.loader.count("Y-CON.ifc"))
	adds, removes := f.scene.counts("Y-CON.ifc")
	assert.Equal(t, 2, adds)
	assert.Equal(t, 1, removes)
}

func TestConcurrentActivateJoinsInFlightLoad(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	f.loader.hold("new.ifc")

	first := make(chan error, 1)
	go func() { first <- f.controller.Activate(ctx, "new.ifc") }()
	f.loader.waitStarted(t, "new.ifc")
	require.True(t, f.controller.Loading("new.ifc"))

	second := make(chan error, 1)
	go func() { second <- f.controller.Activate(ctx, "new.ifc") }()
	f.waitJoined(t, "new.ifc")

	f.loader.release("new.ifc")
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	assert.Equal(t, 1, f.loader.count("new.ifc"))
	adds, _ := f.scene.counts("new.ifc")
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, f.scene.len())
}

func TestLatestIntentWinsWhenLoadCompletes(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	f.loader.hold("slow.ifc")

	done := make(chan error, 1)
	go func() { done <- f.controller.Activate(ctx, "slow.ifc") }()
	f.loader.waitStarted(t, "slow.ifc")

	f.controller.Deactivate("slow.ifc")
	f.loader.release("slow.ifc")
	require.NoError(t, <-done)

	assert.False(t, f.scene.has("slow.ifc"))
	assert.False(t, f.controller.Visible("slow.ifc"))
	_, cached := f.controller.Cached("slow.ifc")
	assert.True(t, cached)

	require.NoError(t, f.controller.Activate(ctx, "slow.ifc"))
	assert.True(t, f.scene.has("slow.ifc"))
	assert.Equal(t, 1, f.loader.count("slow.ifc"))
}

func TestLoadFailureIsRetryable(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	boom := errors.New("network down")
	f.loader.fail("broken.ifc", boom)

	err := f.controller.Activate(ctx, "broken.ifc")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken.ifc")

	_, cached := f.controller.Cached("broken.ifc")
	assert.False(t, cached)
	assert.False(t, f.controller.Loading("broken.ifc"))
	assert.Equal(t, 0, f.scene.len())
	assert.True(t, f.indicator.isVisible(), "indicator stays visible after a failure")
	assert.ErrorIs(t, f.controller.LastError("broken.ifc"), boom)

	f.loader.fail("broken.ifc", nil)
	require.NoError(t, f.controller.Activate(ctx, "broken.ifc"))
	assert.NoError(t, f.controller.LastError("broken.ifc"))

	assert.Equal(t, 2, f.loader.count("broken.ifc"))
	assert.True(t, f.scene.has("broken.ifc"))
	assert.False(t, f.indicator.isVisible())
}

func TestJoinerReceivesLoadFailure(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	boom := errors.New("corrupt")
	f.loader.fail("bad.ifc", boom)
	f.loader.hold("bad.ifc")

	first := make(chan error, 1)
	go func() { first <- f.controller.Activate(ctx, "bad.ifc") }()
	f.loader.waitStarted(t, "bad.ifc")

	second := make(chan error, 1)
	go func() { second <- f.controller.Activate(ctx, "bad.ifc") }()
	f.waitJoined(t, "bad.ifc")

	f.loader.release("bad.ifc")
	assert.ErrorIs(t, <-first, boom)
	assert.ErrorIs(t, <-second, boom)
	assert.Equal(t, 1, f.loader.count("bad.ifc"))
}

func TestJoinerContextCancellation(t *testing.T) {
	f := newFixture(Options{})
	f.loader.hold("big.ifc")

	first := make(chan error, 1)
	go func() { first <- f.controller.Activate(context.Background(), "big.ifc") }()
	f.loader.waitStarted(t, "big.ifc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.controller.Activate(ctx, "big.ifc"), context.Canceled)

	f.loader.release("big.ifc")
	require.NoError(t, <-first)
	assert.True(t, f.scene.has("big.ifc"))
}

func TestLoaderWithoutModel(t *testing.T) {
	f := newFixture(Options{})
	c := NewController(nilLoader{}, f.scene, nil, nil, Options{})

	err := c.Activate(context.Background(), "empty.ifc")
	assert.ErrorIs(t, err, ErrNoModel)
	assert.Equal(t, 0, f.scene.len())
}

type nilLoader struct{}

func (nilLoader) Load(context.Context, string) (*ifc.Model, error) { return nil, nil }

func TestNilIndicator(t *testing.T) {
	loader := newFakeLoader()
	scene := newFakeScene()
	c := NewController(loader, scene, nil, zap.NewNop(), Options{})

	require.NoError(t, c.Activate(context.Background(), "A.ifc"))
	assert.True(t, scene.has("A.ifc"))
}

func TestEdgeOutline(t *testing.T) {
	withEdges := newFixture(Options{Edges: true})
	require.NoError(t, withEdges.controller.Activate(context.Background(), "A.ifc"))
	record, _ := withEdges.controller.Cached("A.ifc")
	assert.Len(t, record.Edges, 3, "a lone triangle has three boundary edges")

	without := newFixture(Options{})
	require.NoError(t, without.controller.Activate(context.Background(), "A.ifc"))
	record, _ = without.controller.Cached("A.ifc")
	assert.Empty(t, record.Edges)
}
