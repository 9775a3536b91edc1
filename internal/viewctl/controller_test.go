package viewctl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gridDashboard/internal/gridstate"
	"gridDashboard/internal/gridstate/gridtest"
	"gridDashboard/internal/models"
	"gridDashboard/internal/views"
	"gridDashboard/internal/views/viewstest"
)

type harness struct {
	ctl    *Controller
	table  *gridtest.Table
	store  *viewstest.MemoryStore
	frames *ManualFrames
}

func newHarness(t *testing.T, configure func(*Options, *viewstest.MemoryStore)) *harness {
	t.Helper()

	h := &harness{
		table:  gridtest.NewTable(models.InvoiceColumns, gridtest.Options{SelectionColumn: true}),
		store:  viewstest.NewMemoryStore(),
		frames: NewManualFrames(),
	}

	opts := Options{
		GridKey:   models.GridInvoices,
		Store:     h.store,
		Scheduler: h.frames,
	}
	if configure != nil {
		configure(&opts, h.store)
	}

	ctl, err := New(opts)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(ctl.Close)
	h.ctl = ctl

	if err := ctl.Attach(context.Background(), h.table, nil); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return h
}

func (h *harness) settle() {
	h.frames.Flush()
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAttachCapturesLaidOutBaseline(t *testing.T) {
	h := newHarness(t, nil)

	if h.ctl.Dirty() {
		t.Fatal("fresh grid should not be dirty")
	}
	if h.ctl.ActiveViewID() != "" {
		t.Fatalf("expected default view, got %q", h.ctl.ActiveViewID())
	}
	if h.table.ApplyCount() != 0 {
		t.Fatalf("attaching on the default view must not push state, got %d applies", h.table.ApplyCount())
	}

	baseline := h.ctl.DefaultState()
	if baseline.ColumnState[0].ColID != gridtest.SelectionColumnID {
		t.Fatalf("baseline should include the injected selection column, got %q", baseline.ColumnState[0].ColID)
	}

	h.ctl.NotifyChanged()
	h.settle()
	if h.ctl.Dirty() {
		t.Fatal("injected columns and widths must not read as dirty")
	}
}

func TestEndToEndSaveSwitchRestore(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.table.SetVisible("invoice_id", true)
	h.table.SetVisible("amount", false)
	h.table.SortBy("total", models.SortDesc)
	h.settle()
	if !h.ctl.Dirty() {
		t.Fatal("expected dirty after edits")
	}

	record, err := h.ctl.SaveView(ctx, SaveCreate, "Q1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if h.ctl.ActiveViewID() != record.ID {
		t.Fatalf("expected new view active, got %q", h.ctl.ActiveViewID())
	}
	if h.ctl.Dirty() {
		t.Fatal("expected clean after save")
	}
	if len(record.SortModel) != 1 || record.SortModel[0].ColID != "total" || record.SortModel[0].Sort != models.SortDesc {
		t.Fatalf("unexpected saved sort model %#v", record.SortModel)
	}
	saved := mustJSON(t, record.ColumnState)

	if err := h.ctl.SelectView(DefaultViewID); err != nil {
		t.Fatalf("select default: %v", err)
	}
	if len(h.ctl.CurrentState().SortModel) != 0 {
		t.Fatalf("sort leaked into default view: %#v", h.ctl.CurrentState().SortModel)
	}
	if h.ctl.Dirty() {
		t.Fatal("expected clean after switching to default")
	}

	if err := h.ctl.SelectView(record.ID); err != nil {
		t.Fatalf("select Q1: %v", err)
	}
	if h.ctl.Dirty() {
		t.Fatal("expected clean immediately after switching back")
	}
	if got := mustJSON(t, h.ctl.CurrentState().ColumnState); got != saved {
		t.Fatalf("restored column state differs:\n%s\n%s", got, saved)
	}

	if h.frames.Pending() != 0 {
		t.Fatalf("events raised during apply should not schedule dirty checks, %d pending", h.frames.Pending())
	}
	h.ctl.NotifyChanged()
	h.settle()
	if h.ctl.Dirty() {
		t.Fatal("capture after apply must round trip")
	}
}

func TestDirtyRecomputeIsCoalesced(t *testing.T) {
	h := newHarness(t, nil)

	var flips []bool
	h.ctl.onDirtyChange = func(d bool) { flips = append(flips, d) }

	h.table.SortBy("total", models.SortAsc)
	h.table.Resize("status", 90)
	h.table.MoveColumn("status", 1)
	if n := h.frames.Pending(); n != 1 {
		t.Fatalf("expected one scheduled recompute, got %d", n)
	}
	h.settle()
	if !h.ctl.Dirty() {
		t.Fatal("expected dirty")
	}

	h.table.SortBy("total", models.SortNone)
	h.table.Resize("status", gridtest.DefaultWidth)
	h.table.MoveColumn("status", 9)
	h.settle()
	if h.ctl.Dirty() {
		t.Fatalf("reverting every edit should settle to clean, state %s", gridstate.Serialize(h.ctl.CurrentState()))
	}

	if len(flips) != 2 || !flips[0] || flips[1] {
		t.Fatalf("unexpected dirty notifications %v", flips)
	}
}

func TestSaveUpdateWithoutActiveViewCreates(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if _, err := h.ctl.SaveView(ctx, SaveUpdate, "   "); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}

	record, err := h.ctl.SaveView(ctx, SaveUpdate, " Mine ")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if record.Name != "Mine" || h.store.Calls("create") != 1 || h.store.Calls("update") != 0 {
		t.Fatalf("expected a create, got record %#v", record)
	}
	if len(h.ctl.Views()) != 1 {
		t.Fatalf("expected refreshed list with the new view, got %d", len(h.ctl.Views()))
	}
}

func TestSaveUpdatePersistsLiveState(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	record, err := h.ctl.SaveView(ctx, SaveCreate, "Q1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	h.table.SetFilter("customer_name", models.NewTextFilter(models.OpStartsWith, "Jo"))
	h.settle()
	if !h.ctl.Dirty() {
		t.Fatal("expected dirty after filter change")
	}

	updated, err := h.ctl.SaveView(ctx, SaveUpdate, "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != record.ID || h.ctl.ActiveViewID() != record.ID {
		t.Fatal("update must keep the active view")
	}
	if h.ctl.Dirty() {
		t.Fatal("expected clean after update")
	}

	stored := h.store.Records()[0]
	if _, ok := stored.FilterModel["customer_name"]; !ok {
		t.Fatalf("filter not persisted: %#v", stored.FilterModel)
	}
}

func TestFailedSaveLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	record, err := h.ctl.SaveView(ctx, SaveCreate, "Q1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	h.table.SortBy("total", models.SortDesc)
	h.settle()

	h.store.FailNext("update", errors.New("offline"))
	if _, err := h.ctl.SaveView(ctx, SaveUpdate, ""); views.KindOf(err) != views.KindRemote {
		t.Fatalf("expected remote error, got %v", err)
	}
	if !h.ctl.Dirty() || h.ctl.ActiveViewID() != record.ID || h.ctl.Saving() {
		t.Fatal("failed update must not change dirty, active view or saving")
	}

	h.store.FailNext("create", errors.New("offline"))
	if _, err := h.ctl.SaveView(ctx, SaveCreate, "Q2"); err == nil {
		t.Fatal("expected create failure")
	}
	if h.ctl.ActiveViewID() != record.ID || len(h.ctl.Views()) != 1 {
		t.Fatal("failed create must not change the active view or list")
	}
}

func TestResetToDefault(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.table.SortBy("total", models.SortDesc)
	h.settle()
	record, err := h.ctl.SaveView(ctx, SaveCreate, "Q1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	h.table.SetVisible("total", false)
	h.settle()
	if err := h.ctl.ResetToDefault(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if h.ctl.ActiveViewID() != record.ID {
		t.Fatal("reset with an active view must stay on that view")
	}
	state := h.ctl.CurrentState()
	if len(state.SortModel) != 1 || gridstate.HiddenByColID(h.table)["total"] {
		t.Fatalf("expected Q1 restored, got %s", gridstate.Serialize(state))
	}

	if err := h.ctl.SelectView(DefaultViewID); err != nil {
		t.Fatalf("select default: %v", err)
	}
	h.table.SortBy("status", models.SortAsc)
	h.settle()
	if err := h.ctl.ResetToDefault(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(h.ctl.CurrentState().SortModel) != 0 || h.ctl.Dirty() {
		t.Fatal("reset on the default view must restore the default")
	}
}

func TestDeleteView(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.ctl.DeleteView(ctx); !errors.Is(err, ErrNoActiveView) {
		t.Fatalf("expected ErrNoActiveView, got %v", err)
	}

	h.table.SortBy("total", models.SortDesc)
	record, err := h.ctl.SaveView(ctx, SaveCreate, "Q1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	applies := h.table.ApplyCount()
	h.store.FailNext("delete", errors.New("offline"))
	if err := h.ctl.DeleteView(ctx); err == nil {
		t.Fatal("expected delete failure")
	}
	if h.ctl.ActiveViewID() != record.ID {
		t.Fatal("failed delete must keep the active view")
	}
	if h.table.ApplyCount() != applies {
		t.Fatal("failed delete must not touch the grid")
	}

	if err := h.ctl.DeleteView(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if h.ctl.ActiveViewID() != "" || len(h.ctl.Views()) != 0 {
		t.Fatal("expected default view and empty list after delete")
	}
	if len(h.ctl.CurrentState().SortModel) != 0 {
		t.Fatal("default view should be applied after delete")
	}
}

func TestInitialViewID(t *testing.T) {
	legacy := models.ViewRecord{
		ID:          "legacy",
		Name:        "Legacy",
		GridKey:     models.GridInvoices,
		ColumnState: []models.ColumnState{{ColID: "invoice_id"}, {ColID: "total"}},
		SortModel:   []models.SortModelItem{{ColID: "total", Sort: models.SortDesc}},
	}

	h := newHarness(t, func(opts *Options, store *viewstest.MemoryStore) {
		opts.InitialViewID = "legacy"
		store.Seed(legacy)
	})
	if h.ctl.ActiveViewID() != "legacy" {
		t.Fatalf("expected legacy view selected, got %q", h.ctl.ActiveViewID())
	}
	state := h.ctl.CurrentState()
	if len(state.SortModel) != 1 || state.SortModel[0].ColID != "total" {
		t.Fatalf("legacy sort model should be merged into the columns, got %#v", state.SortModel)
	}
	if h.ctl.Dirty() {
		t.Fatal("expected clean after initial selection")
	}

	missing := newHarness(t, func(opts *Options, _ *viewstest.MemoryStore) {
		opts.InitialViewID = "nope"
	})
	if missing.ctl.ActiveViewID() != "" || missing.ctl.Dirty() {
		t.Fatal("unknown initial view should fall back to a clean default")
	}
}

func TestAttachWithPrefetchedViews(t *testing.T) {
	store := viewstest.NewMemoryStore()
	ctl, err := New(Options{GridKey: models.GridInvoices, Store: store, Scheduler: NewManualFrames()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer ctl.Close()

	prefetched := []models.ViewRecord{{ID: "v1", Name: "V1", GridKey: models.GridInvoices}}
	table := gridtest.NewTable(models.InvoiceColumns, gridtest.Options{})
	if err := ctl.Attach(context.Background(), table, prefetched); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if store.Calls("list") != 0 {
		t.Fatal("prefetched views should avoid a list call")
	}
	if len(ctl.Views()) != 1 {
		t.Fatalf("expected prefetched views, got %d", len(ctl.Views()))
	}
	if err := ctl.SelectView("missing"); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound, got %v", err)
	}
}

func TestConcurrentMutationRejected(t *testing.T) {
	h := newHarness(t, nil)
	gate := make(chan struct{})
	h.store.Gate = gate

	done := make(chan error, 1)
	go func() {
		_, err := h.ctl.SaveView(context.Background(), SaveCreate, "Q1")
		done <- err
	}()

	waitFor(t, h.ctl.Saving)
	if err := h.ctl.SelectView(DefaultViewID); !errors.Is(err, ErrMutationPending) {
		t.Fatalf("expected ErrMutationPending for select, got %v", err)
	}
	if _, err := h.ctl.SaveView(context.Background(), SaveCreate, "Q2"); !errors.Is(err, ErrMutationPending) {
		t.Fatalf("expected ErrMutationPending for save, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}
	if h.ctl.Saving() {
		t.Fatal("saving should clear after completion")
	}
}

func TestEditDuringSaveStaysDirty(t *testing.T) {
	h := newHarness(t, nil)
	gate := make(chan struct{})
	h.store.Gate = gate

	done := make(chan error, 1)
	go func() {
		_, err := h.ctl.SaveView(context.Background(), SaveCreate, "Q1")
		done <- err
	}()
	waitFor(t, h.ctl.Saving)

	h.table.SortBy("status", models.SortAsc)

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}
	h.settle()
	if !h.ctl.Dirty() {
		t.Fatal("an edit made while saving is not part of the saved state")
	}
}

func TestDirtyNotificationsNeverGoBackwards(t *testing.T) {
	var (
		h       *harness
		changes []bool
		editing bool
	)
	h = newHarness(t, func(opts *Options, _ *viewstest.MemoryStore) {
		opts.OnDirtyChange = func(dirty bool) { changes = append(changes, dirty) }
		opts.OnStateApplied = func(models.GridState) {
			if !editing {
				return
			}
			editing = false
			// The frame scheduled by the save runs before the save reports
			// its own clean flag.
			h.table.SortBy("status", models.SortAsc)
			h.settle()
		}
	})

	h.table.SortBy("total", models.SortDesc)
	h.settle()

	editing = true
	if _, err := h.ctl.SaveView(context.Background(), SaveCreate, "Q1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !h.ctl.Dirty() {
		t.Fatal("the edit made after saving should leave the grid dirty")
	}
	if len(changes) == 0 || !changes[len(changes)-1] {
		t.Fatalf("last reported flag must match Dirty(), got %v", changes)
	}
}

func TestCloseCancelsPendingFrame(t *testing.T) {
	h := newHarness(t, nil)

	h.table.SortBy("total", models.SortAsc)
	if h.frames.Pending() != 1 {
		t.Fatalf("expected pending frame, got %d", h.frames.Pending())
	}

	h.ctl.Close()
	if h.frames.Pending() != 0 {
		t.Fatal("close should cancel the pending frame")
	}
	if err := h.ctl.SelectView(DefaultViewID); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached after close, got %v", err)
	}
}

func TestFrameLoopRunsCallback(t *testing.T) {
	ran := make(chan struct{})
	FrameLoop{Interval: time.Millisecond}.Schedule(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("frame callback did not run")
	}

	cancelled := make(chan struct{}, 1)
	cancel := FrameLoop{Interval: 50 * time.Millisecond}.Schedule(func() { cancelled <- struct{}{} })
	cancel()
	select {
	case <-cancelled:
		t.Fatal("cancelled callback ran")
	case <-time.After(100 * time.Millisecond):
	}
}
