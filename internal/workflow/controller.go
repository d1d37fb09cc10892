// Package workflow implements the roomset studio state machine.
//
// A Controller owns the current step, the product image, the style choice,
// and the generated results of one studio session. All mutation happens
// through its command methods, which serialize on the controller's lock and
// publish the resulting State to subscribers after the lock is released.
//
// Commands reject invalid input by returning one of the sentinel errors in
// this package and leaving the state untouched. Callers are expected to
// treat those rejections as silent no-ops.
package workflow

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/roomset/pkg/formatting"
)

// Releaser frees resources held by a product image once the workflow no
// longer references it.
type Releaser interface {
	Release(ctx context.Context, img ProductImage) error
}

// Run is a generation in flight.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Choice    string    `json:"choice"`
	StartedAt time.Time `json:"started_at"`
	// Advance is cleared by Reset so the completing run leaves the step alone.
	Advance bool `json:"advance"`
}

// State is an immutable copy of the controller state.
type State struct {
	Version   uint64        `json:"version"`
	Step      Step          `json:"step"`
	Product   *ProductImage `json:"product,omitempty"`
	Preset    string        `json:"preset"`
	Prompt    string        `json:"prompt"`
	Uploading bool          `json:"uploading"`
	Pending   *Run          `json:"pending,omitempty"`
	Results   []Result      `json:"results"`
}

// Generating reports whether a generation run is in flight.
func (s State) Generating() bool {
	return s.Pending != nil
}

// Choice returns the style choice a generation would use. The preset takes
// precedence over the free-text prompt.
func (s State) Choice() string {
	if s.Preset != "" {
		return s.Preset
	}
	return s.Prompt
}

// CanGenerate reports whether Generate would currently be accepted.
func (s State) CanGenerate() bool {
	return s.Product != nil &&
		s.Choice() != "" &&
		s.Pending == nil &&
		s.Step.Configurable()
}

// Options configures a Controller. Zero values select production defaults.
type Options struct {
	GenerationDelay time.Duration
	Scheduler       Scheduler
	Releaser        Releaser
	Logger          *slog.Logger
	NewID           func() uuid.UUID
	Now             func() time.Time
}

// Controller is the state machine of one studio session.
type Controller struct {
	mu    sync.Mutex
	state State
	timer Timer

	delay     time.Duration
	scheduler Scheduler
	releaser  Releaser
	logger    *slog.Logger
	newID     func() uuid.UUID
	now       func() time.Time

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New creates a Controller positioned at the upload step.
func New(opts Options) *Controller {
	c := &Controller{
		state:     State{Step: StepUpload, Results: []Result{}},
		delay:     opts.GenerationDelay,
		scheduler: opts.Scheduler,
		releaser:  opts.Releaser,
		logger:    opts.Logger,
		newID:     opts.NewID,
		now:       opts.Now,
		subs:      make(map[int]func(State)),
	}
	if c.scheduler == nil {
		c.scheduler = SystemScheduler{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.newID == nil {
		c.newID = uuid.New
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive every state published after a
// successful command. fn runs on the goroutine that issued the command and
// must not block. The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// BeginUpload marks an upload as being processed.
func (c *Controller) BeginUpload() error {
	return c.apply("begin upload", func(s *State) error {
		if s.Step != StepUpload {
			return ErrInvalidStep
		}
		if s.Uploading {
			return ErrUploadInProgress
		}
		s.Uploading = true
		return nil
	})
}

// CompleteUpload installs img as the product and advances to configure.
func (c *Controller) CompleteUpload(img ProductImage) error {
	return c.apply("complete upload", func(s *State) error {
		if s.Step != StepUpload {
			return ErrInvalidStep
		}
		if img.Ref == "" {
			return ErrUploadFailed
		}
		product := img
		s.Product = &product
		s.Uploading = false
		s.Step = StepConfigure
		return nil
	})
}

// FailUpload abandons the upload in flight. The cause is logged and the
// user is left at the upload step.
func (c *Controller) FailUpload(cause error) error {
	return c.apply("fail upload", func(s *State) error {
		if !s.Uploading {
			return ErrInvalidStep
		}
		c.logger.Warn("upload processing failed", "error", cause)
		s.Uploading = false
		return nil
	})
}

// SelectPreset sets the preset choice. An empty id clears it.
func (c *Controller) SelectPreset(id string) error {
	return c.apply("select preset", func(s *State) error {
		if err := s.editable(); err != nil {
			return err
		}
		if id != "" {
			if _, ok := FindPreset(id); !ok {
				return ErrUnknownPreset
			}
		}
		s.Preset = id
		return nil
	})
}

// SetPrompt sets the free-text choice, truncated to MaxPromptLength characters.
func (c *Controller) SetPrompt(text string) error {
	return c.apply("set prompt", func(s *State) error {
		if err := s.editable(); err != nil {
			return err
		}
		s.Prompt = formatting.Truncate(text, MaxPromptLength)
		return nil
	})
}

// UseExamplePrompt fills the free-text choice with the example at index i.
func (c *Controller) UseExamplePrompt(i int) error {
	if i < 0 || i >= len(examplePrompts) {
		c.logger.Debug("command rejected", "command", "use example prompt", "error", ErrInvalidSelection)
		return ErrInvalidSelection
	}
	return c.SetPrompt(examplePrompts[i])
}

// Generate starts a simulated generation run. The batch is produced after
// the configured generation delay; the step moves to generate immediately.
func (c *Controller) Generate() error {
	return c.apply("generate", func(s *State) error {
		if s.Product == nil {
			return ErrNoProduct
		}
		if s.Pending != nil {
			return ErrGenerationInProgress
		}
		if !s.Step.Configurable() {
			return ErrInvalidStep
		}
		choice := s.Choice()
		if choice == "" {
			return ErrInvalidSelection
		}

		run := &Run{ID: c.newID(), Choice: choice, StartedAt: c.now(), Advance: true}
		s.Pending = run
		s.Step = StepGenerate
		c.schedule(run.ID, c.delay)
		return nil
	})
}

// Reset discards the product and style choice and returns to the upload
// step. Results are kept. A generation in flight still completes but no
// longer advances the step.
func (c *Controller) Reset(ctx context.Context) error {
	var released *ProductImage
	err := c.apply("reset", func(s *State) error {
		released = s.Product
		s.Product = nil
		s.Preset = ""
		s.Prompt = ""
		s.Step = StepUpload
		if s.Pending != nil {
			s.Pending.Advance = false
		}
		return nil
	})
	if err != nil {
		return err
	}

	if released != nil && c.releaser != nil {
		if err := c.releaser.Release(ctx, *released); err != nil {
			c.logger.Error("release product image failed", "error", err, "ref", released.Ref)
		}
	}
	return nil
}

// Delete removes the result with the given id.
func (c *Controller) Delete(id uuid.UUID) error {
	return c.apply("delete result", func(s *State) error {
		i := slices.IndexFunc(s.Results, func(r Result) bool { return r.ID == id })
		if i < 0 {
			return ErrResultNotFound
		}
		s.Results = slices.Delete(s.Results, i, i+1)
		return nil
	})
}

// Result returns the result with the given id.
func (c *Controller) Result(id uuid.UUID) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.state.Results {
		if r.ID == id {
			return r, nil
		}
	}
	return Result{}, ErrResultNotFound
}

// Restore replaces the controller state with a previously captured one and
// reschedules a pending generation for whatever remains of its delay.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.state = s.clone()
	if !c.state.Step.Valid() {
		c.state.Step = StepUpload
	}
	if c.state.Results == nil {
		c.state.Results = []Result{}
	}
	// The goroutine processing an interrupted upload does not survive.
	c.state.Uploading = false

	if run := c.state.Pending; run != nil {
		remaining := c.delay - c.now().Sub(run.StartedAt)
		c.schedule(run.ID, max(remaining, 0))
	}
	c.mu.Unlock()
}

// Close stops a pending completion timer. The controller must not be used
// afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// schedule must be called with c.mu held.
func (c *Controller) schedule(runID uuid.UUID, d time.Duration) {
	c.timer = c.scheduler.AfterFunc(d, func() { c.complete(runID) })
}

func (c *Controller) complete(runID uuid.UUID) {
	c.apply("complete generation", func(s *State) error {
		run := s.Pending
		if run == nil || run.ID != runID {
			return ErrInvalidStep
		}

		created := c.now()
		batch := make([]Result, BatchSize)
		for i := range batch {
			batch[i] = Result{
				ID:        c.newID(),
				URL:       resultURL(i),
				Prompt:    run.Choice,
				CreatedAt: created,
			}
		}

		s.Results = append(batch, s.Results...)
		s.Pending = nil
		if run.Advance {
			s.Step = StepResults
		}
		c.timer = nil
		return nil
	})
}

// apply runs mutate against a working copy of the state. The copy replaces
// the current state only when mutate succeeds, and subscribers are notified
// outside the lock.
func (c *Controller) apply(command string, mutate func(*State) error) error {
	c.mu.Lock()
	next := c.state.clone()
	if err := mutate(&next); err != nil {
		c.mu.Unlock()
		c.logger.Debug("command rejected", "command", command, "error", err)
		return err
	}
	next.Version = c.state.Version + 1
	c.state = next
	published := next.clone()
	c.mu.Unlock()

	c.publish(published)
	return nil
}

func (c *Controller) publish(s State) {
	c.subMu.Lock()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

func (s *State) editable() error {
	if s.Pending != nil {
		return ErrGenerationInProgress
	}
	if !s.Step.Configurable() {
		return ErrInvalidStep
	}
	return nil
}

func (s State) clone() State {
	out := s
	if s.Product != nil {
		p := *s.Product
		out.Product = &p
	}
	if s.Pending != nil {
		r := *s.Pending
		out.Pending = &r
	}
	out.Results = slices.Clone(s.Results)
	if out.Results == nil {
		out.Results = []Result{}
	}
	return out
}
