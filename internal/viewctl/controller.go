// Package viewctl keeps a live grid in step with the saved views of its grid
// key: switching views, tracking unsaved edits, saving and deleting.
package viewctl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"gridDashboard/internal/gridstate"
	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
	"gridDashboard/internal/views"
)

// DefaultViewID selects the synthetic default view
const DefaultViewID = "default"

var (
	ErrNoActiveView    = errors.New("viewctl: no saved view is active")
	ErrNameRequired    = errors.New("viewctl: view name is required")
	ErrViewNotFound    = errors.New("viewctl: view not found")
	ErrMutationPending = errors.New("viewctl: another view change is in progress")
	ErrNotAttached     = errors.New("viewctl: no table attached")
)

// SaveMode picks between updating the active view and creating a new one
type SaveMode int

const (
	SaveUpdate SaveMode = iota
	SaveCreate
)

// Options configures a Controller
type Options struct {
	GridKey    string
	ColumnDefs []models.ColumnDef
	Store      views.Store
	Scheduler  Scheduler
	Logger     *logging.Logger

	// InitialViewID is selected on Attach when it names a known view
	InitialViewID string

	// OnStateApplied receives the state read back after every view switch
	// and save
	OnStateApplied func(models.GridState)
	// OnDirtyChange receives the dirty flag when a recompute flips it and
	// when a switch or save resets it. Calls are serialized and never
	// deliver a flag older than one already delivered. It must not call
	// back into the controller's mutating methods.
	OnDirtyChange func(dirty bool)
}

// Controller tracks the active view and dirty flag of one grid
type Controller struct {
	gridKey   string
	store     views.Store
	scheduler Scheduler
	logger    *logging.Logger

	initialViewID  string
	onStateApplied func(models.GridState)
	onDirtyChange  func(bool)

	// applying is read without the mutex: the widget fires change events
	// synchronously from inside an apply.
	applying atomic.Bool

	mutex        sync.Mutex
	table        gridstate.Table
	defaultState models.GridState
	views        []models.ViewRecord
	activeViewID string
	lastSaved    string
	dirty        bool
	mutating     bool
	loadingViews bool
	cancelFrame  func()
	closed       bool
	dirtySeq     uint64

	// notifyMutex orders OnDirtyChange deliveries; a notice older than the
	// last one delivered is dropped.
	notifyMutex  sync.Mutex
	deliveredSeq uint64
}

// dirtyNotice is a dirty flag decided under the mutex, stamped with the
// order in which it was decided
type dirtyNotice struct {
	dirty bool
	seq   uint64
}

// New creates a controller for one grid. The table is attached later, once
// it has laid out.
func New(opts Options) (*Controller, error) {
	columnDefs := opts.ColumnDefs
	if columnDefs == nil {
		defs, ok := models.ColumnDefsFor(opts.GridKey)
		if !ok {
			return nil, fmt.Errorf("viewctl: unknown grid key %q", opts.GridKey)
		}
		columnDefs = defs
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("viewctl: a view store is required")
	}

	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = FrameLoop{}
	}

	defaultState := gridstate.BuildDefaultState(columnDefs)
	return &Controller{
		gridKey:        opts.GridKey,
		store:          opts.Store,
		scheduler:      scheduler,
		logger:         logging.OrDiscard(opts.Logger).Named("viewctl"),
		initialViewID:  opts.InitialViewID,
		onStateApplied: opts.OnStateApplied,
		onDirtyChange:  opts.OnDirtyChange,
		defaultState:   defaultState,
		lastSaved:      gridstate.Serialize(defaultState),
	}, nil
}

// LoadViews fetches the saved views of the grid, bypassing any cache
func (c *Controller) LoadViews(ctx context.Context) error {
	c.mutex.Lock()
	c.loadingViews = true
	c.mutex.Unlock()

	list, err := views.Refresh(ctx, c.store, c.gridKey)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.loadingViews = false
	if err != nil {
		return err
	}
	c.views = list
	return nil
}

// Attach binds the laid-out table. The table's actual state becomes the
// default baseline. When initialViews is nil the list is fetched first.
func (c *Controller) Attach(ctx context.Context, table gridstate.Table, initialViews []models.ViewRecord) error {
	if table == nil {
		return ErrNotAttached
	}

	if initialViews == nil {
		if err := c.LoadViews(ctx); err != nil {
			c.logger.WithError(err).Warn("Failed to load saved views")
		}
	} else {
		c.mutex.Lock()
		c.views = append([]models.ViewRecord{}, initialViews...)
		c.mutex.Unlock()
	}

	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return nil
	}

	c.table = table
	c.defaultState = gridstate.CaptureState(table, c.defaultState)
	c.activeViewID = ""
	c.markSavedLocked(c.defaultState)

	var applied *models.GridState
	if c.initialViewID != "" && c.initialViewID != DefaultViewID {
		if view, ok := c.findViewLocked(c.initialViewID); ok {
			state := c.applyLocked(gridstate.FromView(view), view.ID)
			applied = &state
		} else {
			c.logger.WithField("view_id", c.initialViewID).Warn("Requested view not found, staying on default")
		}
	}
	notice := c.dirtyNoticeLocked(false)
	c.mutex.Unlock()

	if notifier, ok := table.(gridstate.ChangeNotifier); ok {
		notifier.OnChange(func(string) { c.NotifyChanged() })
	}

	if applied != nil {
		c.stateApplied(*applied)
	}
	c.dirtyChanged(notice)
	return nil
}

// SelectView switches to a saved view, or to the default view for "" or
// DefaultViewID. The state read back after applying becomes the baseline.
func (c *Controller) SelectView(id string) error {
	c.mutex.Lock()
	if err := c.readyLocked(); err != nil {
		c.mutex.Unlock()
		return err
	}

	var state models.GridState
	if id == "" || id == DefaultViewID {
		state = c.applyLocked(c.defaultState, "")
	} else {
		view, ok := c.findViewLocked(id)
		if !ok {
			c.mutex.Unlock()
			return ErrViewNotFound
		}
		state = c.applyLocked(gridstate.FromView(view), view.ID)
	}
	notice := c.dirtyNoticeLocked(false)
	c.mutex.Unlock()

	c.stateApplied(state)
	c.dirtyChanged(notice)
	return nil
}

// ResetToDefault discards unsaved edits. With a saved view active that view
// is restored; otherwise the default view is.
func (c *Controller) ResetToDefault() error {
	c.mutex.Lock()
	if err := c.readyLocked(); err != nil {
		c.mutex.Unlock()
		return err
	}

	var state models.GridState
	view, ok := c.findViewLocked(c.activeViewID)
	if c.activeViewID != "" && ok {
		state = c.applyLocked(gridstate.FromView(view), view.ID)
	} else {
		state = c.applyLocked(c.defaultState, "")
	}
	notice := c.dirtyNoticeLocked(false)
	c.mutex.Unlock()

	c.stateApplied(state)
	c.dirtyChanged(notice)
	return nil
}

// NotifyChanged is called for every column, sort or filter event. Dirty is
// recomputed at most once per frame. Events raised while a view is being
// applied are ignored.
func (c *Controller) NotifyChanged() {
	if c.applying.Load() {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed || c.table == nil || c.cancelFrame != nil {
		return
	}
	c.cancelFrame = c.scheduler.Schedule(c.recomputeDirty)
}

func (c *Controller) recomputeDirty() {
	c.mutex.Lock()
	c.cancelFrame = nil
	if c.closed || c.table == nil {
		c.mutex.Unlock()
		return
	}

	current := gridstate.CaptureState(c.table, c.defaultState)
	dirty := gridstate.Serialize(current) != c.lastSaved
	changed := dirty != c.dirty
	c.dirty = dirty
	var notice dirtyNotice
	if changed {
		notice = c.dirtyNoticeLocked(dirty)
	}
	c.mutex.Unlock()

	if changed {
		c.dirtyChanged(notice)
	}
}

// SaveView persists the live state. SaveUpdate without an active view
// creates a new view instead; creating needs a non-blank name. On failure
// nothing changes locally.
func (c *Controller) SaveView(ctx context.Context, mode SaveMode, name string) (models.ViewRecord, error) {
	c.mutex.Lock()
	if err := c.readyLocked(); err != nil {
		c.mutex.Unlock()
		return models.ViewRecord{}, err
	}

	if mode == SaveUpdate && c.activeViewID == "" {
		mode = SaveCreate
	}
	name = strings.TrimSpace(name)
	if mode == SaveCreate && name == "" {
		c.mutex.Unlock()
		return models.ViewRecord{}, ErrNameRequired
	}

	state := gridstate.Normalize(gridstate.CaptureState(c.table, c.defaultState))
	activeID := c.activeViewID
	c.mutating = true
	c.mutex.Unlock()

	var (
		record models.ViewRecord
		err    error
	)
	if mode == SaveCreate {
		record, err = c.store.Create(ctx, models.NewView{
			Name:        name,
			GridKey:     c.gridKey,
			ColumnState: state.ColumnState,
			SortModel:   state.SortModel,
			FilterModel: state.FilterModel,
		})
	} else {
		err = c.store.Update(ctx, activeID, models.StatePatch(state))
	}
	if err != nil {
		c.mutex.Lock()
		c.mutating = false
		c.mutex.Unlock()

		c.logger.WithError(err).Error("Failed to save view")
		return models.ViewRecord{}, err
	}

	list, refreshErr := views.Refresh(ctx, c.store, c.gridKey)

	c.mutex.Lock()
	c.mutating = false
	if mode == SaveCreate {
		c.activeViewID = record.ID
	} else {
		record = c.updatedRecordLocked(activeID, state)
	}
	if refreshErr != nil {
		c.logger.WithError(refreshErr).Warn("Failed to refresh views after save")
		c.upsertViewLocked(record)
	} else {
		c.views = list
		if refreshed, ok := c.findViewLocked(record.ID); ok {
			record = refreshed
		}
	}
	c.markSavedLocked(state)
	if c.table != nil && !c.closed && c.cancelFrame == nil {
		// Edits made while the request was in flight are still unsaved.
		c.cancelFrame = c.scheduler.Schedule(c.recomputeDirty)
	}
	notice := c.dirtyNoticeLocked(false)
	c.mutex.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"view_id": record.ID,
		"created": mode == SaveCreate,
	}).Info("View saved")

	c.stateApplied(state)
	c.dirtyChanged(notice)
	return record, nil
}

// DeleteView removes the active saved view and switches to the default view
func (c *Controller) DeleteView(ctx context.Context) error {
	c.mutex.Lock()
	if err := c.readyLocked(); err != nil {
		c.mutex.Unlock()
		return err
	}
	if c.activeViewID == "" {
		c.mutex.Unlock()
		return ErrNoActiveView
	}
	id := c.activeViewID
	c.mutating = true
	c.mutex.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		c.mutex.Lock()
		c.mutating = false
		c.mutex.Unlock()

		c.logger.WithError(err).WithField("view_id", id).Error("Failed to delete view")
		return err
	}

	list, refreshErr := views.Refresh(ctx, c.store, c.gridKey)

	c.mutex.Lock()
	c.mutating = false
	if refreshErr != nil {
		c.logger.WithError(refreshErr).Warn("Failed to refresh views after delete")
		c.removeViewLocked(id)
	} else {
		c.views = list
	}
	if c.closed || c.table == nil {
		c.mutex.Unlock()
		return nil
	}
	state := c.applyLocked(c.defaultState, "")
	notice := c.dirtyNoticeLocked(false)
	c.mutex.Unlock()

	c.logger.WithField("view_id", id).Info("View deleted")

	c.stateApplied(state)
	c.dirtyChanged(notice)
	return nil
}

// Close stops pending dirty checks and detaches the table
func (c *Controller) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.closed = true
	if c.cancelFrame != nil {
		c.cancelFrame()
		c.cancelFrame = nil
	}
	c.table = nil
}

// Accessors

func (c *Controller) Dirty() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.dirty
}

// ActiveViewID returns the selected saved view, or "" for the default view
func (c *Controller) ActiveViewID() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.activeViewID
}

// Views returns the known saved views in creation order
func (c *Controller) Views() []models.ViewRecord {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]models.ViewRecord{}, c.views...)
}

// Saving reports whether a save or delete is in flight
func (c *Controller) Saving() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.mutating
}

func (c *Controller) LoadingViews() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.loadingViews
}

// DefaultState returns the default baseline captured on Attach
func (c *Controller) DefaultState() models.GridState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.defaultState.Clone()
}

// CurrentState reads the live state of the attached table
func (c *Controller) CurrentState() models.GridState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return gridstate.CaptureState(c.table, c.defaultState)
}

// Internals. Methods ending in Locked expect c.mutex to be held.

func (c *Controller) readyLocked() error {
	if c.closed || c.table == nil {
		return ErrNotAttached
	}
	if c.mutating {
		return ErrMutationPending
	}
	return nil
}

// applyLocked pushes state onto the table, reads back what the widget
// actually holds and makes that the baseline.
func (c *Controller) applyLocked(state models.GridState, viewID string) models.GridState {
	if c.cancelFrame != nil {
		c.cancelFrame()
		c.cancelFrame = nil
	}

	c.applying.Store(true)
	gridstate.ApplyState(c.table, state)
	actual := gridstate.CaptureState(c.table, c.defaultState)
	c.applying.Store(false)

	c.activeViewID = viewID
	c.markSavedLocked(actual)
	return actual
}

func (c *Controller) markSavedLocked(state models.GridState) {
	c.lastSaved = gridstate.Serialize(state)
	c.dirty = false
}

func (c *Controller) findViewLocked(id string) (models.ViewRecord, bool) {
	if id == "" {
		return models.ViewRecord{}, false
	}
	for _, v := range c.views {
		if v.ID == id {
			return v, true
		}
	}
	return models.ViewRecord{}, false
}

func (c *Controller) updatedRecordLocked(id string, state models.GridState) models.ViewRecord {
	record, ok := c.findViewLocked(id)
	if !ok {
		record = models.ViewRecord{ID: id, GridKey: c.gridKey}
	}
	models.StatePatch(state).Apply(&record)
	return record
}

func (c *Controller) upsertViewLocked(record models.ViewRecord) {
	for i := range c.views {
		if c.views[i].ID == record.ID {
			c.views[i] = record
			return
		}
	}
	c.views = append(c.views, record)
}

func (c *Controller) removeViewLocked(id string) {
	for i := range c.views {
		if c.views[i].ID == id {
			c.views = append(c.views[:i:i], c.views[i+1:]...)
			return
		}
	}
}

func (c *Controller) stateApplied(state models.GridState) {
	if c.onStateApplied != nil {
		c.onStateApplied(state.Clone())
	}
}

func (c *Controller) dirtyNoticeLocked(dirty bool) dirtyNotice {
	c.dirtySeq++
	return dirtyNotice{dirty: dirty, seq: c.dirtySeq}
}

func (c *Controller) dirtyChanged(notice dirtyNotice) {
	if c.onDirtyChange == nil {
		return
	}

	c.notifyMutex.Lock()
	defer c.notifyMutex.Unlock()
	if notice.seq <= c.deliveredSeq {
		return
	}
	c.deliveredSeq = notice.seq
	c.onDirtyChange(notice.dirty)
}
