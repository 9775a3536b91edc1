// Package rowsource feeds a server-side grid one page at a time and drops
// results that belong to a query the grid has already moved past.
package rowsource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
)

var (
	// ErrStaleRequest is wrapped by every error reported for a result that
	// was not applied
	ErrStaleRequest = errors.New("rowsource: stale request")
	// ErrSuperseded means a newer query replaced the one this page belonged to
	ErrSuperseded = fmt.Errorf("%w: superseded by a newer query", ErrStaleRequest)
	// ErrClosed means the datasource was torn down
	ErrClosed = fmt.Errorf("%w: datasource closed", ErrStaleRequest)
)

// Fetcher loads one page of a table
type Fetcher interface {
	FetchRows(ctx context.Context, table string, req models.RowRequest) (models.RowPage, error)
}

// Result is handed to the grid for a successful request. RowCount is nil
// when the total is unknown.
type Result struct {
	RowData  []models.Row
	RowCount *int64
}

// Params is one row request from the grid. Exactly one of Success and Fail
// is called.
type Params struct {
	Request models.RowRequest
	Success func(Result)
	Fail    func(error)
}

// Options configures a Datasource
type Options struct {
	Logger *logging.Logger
	// OnLoadingChange fires when the first first-page request starts and
	// when the last one finishes
	OnLoadingChange func(loading bool)
}

type inflight struct {
	fingerprint string
	top         bool
	cancel      context.CancelFunc
	reason      error
}

// Datasource implements the grid's server-side row model for one table
type Datasource struct {
	table           string
	fetcher         Fetcher
	logger          *logging.Logger
	onLoadingChange func(bool)

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mutex    sync.Mutex
	active   string
	requests map[uint64]*inflight
	nextID   uint64
	loading  int
	closed   bool
	wg       sync.WaitGroup

	notifyMutex sync.Mutex
	notified    bool
}

// New creates a datasource for table
func New(table string, fetcher Fetcher, opts Options) *Datasource {
	ctx, cancel := context.WithCancel(context.Background())
	return &Datasource{
		table:           table,
		fetcher:         fetcher,
		logger:          logging.OrDiscard(opts.Logger).Named("rowsource"),
		onLoadingChange: opts.OnLoadingChange,
		baseCtx:         ctx,
		cancelBase:      cancel,
		requests:        make(map[uint64]*inflight),
	}
}

// GetRows starts fetching the requested page and returns immediately
func (d *Datasource) GetRows(params Params) {
	fingerprint := Fingerprint(params.Request)
	top := params.Request.StartRow == 0

	d.mutex.Lock()
	if d.closed {
		d.mutex.Unlock()
		d.fail(params, ErrClosed)
		return
	}

	if fingerprint != d.active {
		for _, req := range d.requests {
			req.reason = ErrSuperseded
			req.cancel()
		}
		d.active = fingerprint
	}

	ctx, cancel := context.WithCancel(d.baseCtx)
	d.nextID++
	id := d.nextID
	req := &inflight{fingerprint: fingerprint, top: top, cancel: cancel}
	d.requests[id] = req

	startedLoading := false
	if top {
		d.loading++
		startedLoading = d.loading == 1
	}
	d.wg.Add(1)
	d.mutex.Unlock()

	if startedLoading {
		d.syncLoading()
	}

	go d.run(ctx, id, req, params)
}

func (d *Datasource) run(ctx context.Context, id uint64, req *inflight, params Params) {
	defer d.wg.Done()

	page, err := d.fetcher.FetchRows(ctx, d.table, params.Request)

	d.mutex.Lock()
	delete(d.requests, id)
	req.cancel()

	stoppedLoading := false
	if req.top {
		d.loading--
		stoppedLoading = d.loading == 0
	}

	stale := req.reason
	if stale == nil && d.closed {
		stale = ErrClosed
	}
	if stale == nil && req.fingerprint != d.active {
		stale = ErrSuperseded
	}
	d.mutex.Unlock()

	if stoppedLoading {
		d.syncLoading()
	}

	switch {
	case stale != nil:
		d.logger.WithFields(map[string]interface{}{
			"table":     d.table,
			"start_row": params.Request.StartRow,
			"end_row":   params.Request.EndRow,
		}).WithError(stale).Debug("Discarding stale rows")
		d.fail(params, stale)
	case err != nil:
		d.logger.WithFields(map[string]interface{}{
			"table":     d.table,
			"start_row": params.Request.StartRow,
		}).WithError(err).Warn("Row fetch failed")
		d.fail(params, err)
	default:
		if params.Success != nil {
			params.Success(Result{RowData: page.Rows, RowCount: page.LastRow})
		}
	}
}

// Loading reports whether a first-page request is in flight
func (d *Datasource) Loading() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.loading > 0
}

// Close cancels every in-flight request. Their callbacks still fire, with
// ErrClosed.
func (d *Datasource) Close() {
	d.mutex.Lock()
	if d.closed {
		d.mutex.Unlock()
		return
	}
	d.closed = true
	for _, req := range d.requests {
		if req.reason == nil {
			req.reason = ErrClosed
		}
	}
	d.mutex.Unlock()

	d.cancelBase()
}

// Wait blocks until every started request has reported back
func (d *Datasource) Wait() {
	d.wg.Wait()
}

func (d *Datasource) fail(params Params, err error) {
	if params.Fail != nil {
		params.Fail(err)
	}
}

// syncLoading reports the current loading flag if it differs from the last
// one reported, so callbacks never arrive out of order.
func (d *Datasource) syncLoading() {
	d.notifyMutex.Lock()
	defer d.notifyMutex.Unlock()

	d.mutex.Lock()
	loading := d.loading > 0
	d.mutex.Unlock()

	if loading == d.notified {
		return
	}
	d.notified = loading
	if d.onLoadingChange != nil {
		d.onLoadingChange(loading)
	}
}
