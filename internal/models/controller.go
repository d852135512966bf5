package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/philipparndt/goifc/pkg/geometry"
	"github.com/philipparndt/goifc/pkg/ifc"
)

// DefaultEdgeThreshold is the dihedral angle in degrees above which an edge is outlined
const DefaultEdgeThreshold = 30.0

// ErrNoModel is returned when a loader reports success without a model
var ErrNoModel = errors.New("loader returned no model")

// Loader fetches and parses the model for an identifier
type Loader interface {
	Load(ctx context.Context, id string) (*ifc.Model, error)
}

// Scene is the render-side set of visible records.
// Add of a present record and Remove of an absent one must be harmless.
// Implementations are called with the controller lock held and must not call back into the controller.
type Scene interface {
	Add(r *Record)
	Remove(r *Record)
}

// Indicator is the loading indicator. Same locking rule as Scene.
type Indicator interface {
	Show()
	Hide()
}

// Options configures record construction
type Options struct {
	// Edges enables the feature-edge outline
	Edges bool
	// EdgeThreshold in degrees; zero means DefaultEdgeThreshold
	EdgeThreshold float64
}

type loadState int

const (
	stateAbsent loadState = iota
	stateLoading
	stateLoaded
)

func (s loadState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateLoaded:
		return "loaded"
	default:
		return "absent"
	}
}

// flight is one in-flight load; done is closed once err and the entry are final
type flight struct {
	done chan struct{}
	err  error
}

type entry struct {
	toggle     *Toggle
	discipline Discipline
	state      loadState
	flight     *flight
	record     *Record
	lastErr    error
	// desired is the latest visibility intent, inScene what the scene currently holds
	desired bool
	inScene bool
}

// Controller coordinates loading, caching, styling and scene membership of models.
// A record is in the scene exactly when its model is loaded and was last asked to be visible.
type Controller struct {
	loader    Loader
	scene     Scene
	indicator Indicator
	logger    *zap.Logger
	opts      Options

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	pending int

	// joined is called when an Activate starts waiting on another caller's load
	joined func(id string)
}

// NewController creates a controller. indicator may be nil.
func NewController(loader Loader, scene Scene, indicator Indicator, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.EdgeThreshold <= 0 {
		opts.EdgeThreshold = DefaultEdgeThreshold
	}
	return &Controller{
		loader:    loader,
		scene:     scene,
		indicator: indicator,
		logger:    logger.Named("models"),
		opts:      opts,
		entries:   make(map[string]*entry),
	}
}

// Register binds a new identifier to an inactive toggle. Unknown derives the
// discipline from the identifier. Registering a known identifier returns its
// existing toggle and false.
func (c *Controller) Register(id string, discipline Discipline) (*Toggle, bool) {
	return c.register(id, discipline, discipline == Unknown)
}

// RegisterAs is Register without inference: Unknown keeps the neutral style.
func (c *Controller) RegisterAs(id string, discipline Discipline) (*Toggle, bool) {
	return c.register(id, discipline, false)
}

func (c *Controller) register(id string, discipline Discipline, infer bool) (*Toggle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.toggle, false
	}
	e := c.registerLocked(id, discipline, infer)
	c.logger.Debug("registered model",
		zap.String("model", id),
		zap.Stringer("discipline", e.discipline))
	return e.toggle, true
}

func (c *Controller) registerLocked(id string, discipline Discipline, infer bool) *entry {
	if infer {
		discipline = Classify(id)
	}
	e := &entry{toggle: NewToggle(id), discipline: discipline}
	c.entries[id] = e
	c.order = append(c.order, id)
	return e
}

// Toggles returns the controls in registration order
func (c *Controller) Toggles() []*Toggle {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*Toggle, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.entries[id].toggle)
	}
	return result
}

// Toggle flips the control and shows or hides its model accordingly
func (c *Controller) Toggle(ctx context.Context, t *Toggle) error {
	if t.Flip() {
		return c.Activate(ctx, t.ID)
	}
	c.Deactivate(t.ID)
	return nil
}

// Activate makes a model visible, loading it first if needed.
// A caller arriving while the model loads waits for that load instead of starting another.
// On failure the model is not cached, a later Activate retries, and the loading indicator stays visible.
func (c *Controller) Activate(ctx context.Context, id string) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		e = c.registerLocked(id, Unknown, true)
	}
	e.desired = true
	c.logger.Debug("activate", zap.String("model", id), zap.Stringer("state", e.state))

	switch e.state {
	case stateLoaded:
		c.showLocked(e)
		c.mu.Unlock()
		return nil

	case stateLoading:
		f := e.flight
		c.mu.Unlock()
		c.logger.Debug("joining in-flight load", zap.String("model", id))
		if c.joined != nil {
			c.joined(id)
		}
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		f := &flight{done: make(chan struct{})}
		e.state = stateLoading
		e.flight = f
		c.pending++
		if c.indicator != nil {
			c.indicator.Show()
		}
		discipline := e.discipline
		c.mu.Unlock()

		c.load(ctx, id, discipline, e, f)
		return f.err
	}
}

func (c *Controller) load(ctx context.Context, id string, discipline Discipline, e *entry, f *flight) {
	defer close(f.done)

	start := time.Now()
	c.logger.Info("loading model", zap.String("model", id), zap.Stringer("discipline", discipline))

	model, err := c.loader.Load(ctx, id)
	if err == nil && model == nil {
		err = ErrNoModel
	}
	var record *Record
	if err == nil {
		record = c.newRecord(id, discipline, model)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending--
	e.flight = nil
	if err != nil {
		e.state = stateAbsent
		f.err = fmt.Errorf("failed to load model %s: %w", id, err)
		e.lastErr = f.err
		c.logger.Error("failed to load model", zap.String("model", id), zap.Error(err))
		return
	}

	e.state = stateLoaded
	e.record = record
	e.lastErr = nil
	if e.desired {
		c.showLocked(e)
	}
	if c.pending == 0 && c.indicator != nil {
		c.indicator.Hide()
	}
	c.logger.Info("model loaded",
		zap.String("model", id),
		zap.Int("meshes", len(model.Meshes)),
		zap.Int("triangles", model.TriangleCount()),
		zap.Int("edges", len(record.Edges)),
		zap.Bool("visible", e.inScene),
		zap.Duration("elapsed", time.Since(start)))
}

func (c *Controller) newRecord(id string, discipline Discipline, model *ifc.Model) *Record {
	record := &Record{
		ID:         id,
		Discipline: discipline,
		Model:      model,
		Material:   StyleFor(discipline),
	}
	if c.opts.Edges {
		record.Edges = geometry.FeatureEdges(model.Triangles(), c.opts.EdgeThreshold)
	}
	return record
}

func (c *Controller) showLocked(e *entry) {
	if e.inScene {
		return
	}
	c.scene.Add(e.record)
	e.inScene = true
}

// Deactivate hides a model. The cache entry is kept. Unknown identifiers are ignored.
func (c *Controller) Deactivate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return
	}
	e.desired = false
	if e.inScene {
		c.scene.Remove(e.record)
		e.inScene = false
	}
}

// ActivateAll switches every registered control on and loads all models concurrently.
// Every failure is logged; the first one is returned after all loads finished.
func (c *Controller) ActivateAll(ctx context.Context) error {
	var g errgroup.Group
	for _, t := range c.Toggles() {
		t := t
		t.SetActive(true)
		g.Go(func() error {
			return c.Activate(ctx, t.ID)
		})
	}
	return g.Wait()
}

// Visible reports whether the model is currently in the scene
func (c *Controller) Visible(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	return ok && e.inScene
}

// Cached returns the loaded record for an identifier
func (c *Controller) Cached(id string) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || e.state != stateLoaded {
		return nil, false
	}
	return e.record, true
}

// Loading reports whether a load for the identifier is in flight
func (c *Controller) Loading(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	return ok && e.state == stateLoading
}

// LastError returns the error of the latest finished load of the identifier,
// or nil if it succeeded or never finished
func (c *Controller) LastError(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.lastErr
	}
	return nil
}

// Discipline returns the discipline assigned at registration
func (c *Controller) Discipline(id string) Discipline {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.discipline
	}
	return Classify(id)
}

// IDs returns the registered identifiers in registration order
func (c *Controller) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.order...)
}
