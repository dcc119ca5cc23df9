package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
	pkgstrings "github.com/open-metrics-mt-kit/ruler-informer/pkg/strings"
)

// maxStatusErrorLen caps the error text kept per status entry.
const maxStatusErrorLen = 512

// Manager dispatches change events to a Reconciler.
//
// It manages:
//   - an optional change detector
//   - the work queue, deduplicated by tenant/namespace/group
//   - a worker pool with per-request timeouts
//   - retry with exponential backoff and terminal failure
type Manager struct {
	mu sync.RWMutex

	config ManagerConfig

	// reconciler handles every request
	reconciler Reconciler

	// changeDetector feeds change events, may be nil
	changeDetector ChangeDetector

	// queue orders requests per rule group, newest event first
	queue *ruleQueue

	// statusTracker tracks reconciliation status per request key
	statusTracker map[string]*ReconcileStatus

	// changeChan receives change events from the detector
	changeChan chan ChangeEvent

	metrics *Metrics

	ctx        context.Context
	cancelFunc context.CancelFunc

	// wg tracks running workers
	wg sync.WaitGroup

	running bool
}

// NewManager creates a new dispatcher. detector may be nil when events are
// only fed through Enqueue; metrics may be nil.
func NewManager(config ManagerConfig, reconciler Reconciler, detector ChangeDetector, metrics *Metrics) *Manager {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 2
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 5 * time.Minute
	}
	if config.ReconcileTimeout <= 0 {
		config.ReconcileTimeout = 30 * time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 100
	}

	return &Manager{
		config:         config,
		reconciler:     reconciler,
		changeDetector: detector,
		queue:          newRuleQueue(),
		statusTracker:  make(map[string]*ReconcileStatus),
		changeChan:     make(chan ChangeEvent, config.EventBuffer),
		metrics:        metrics,
	}
}

// Start begins the dispatcher. It returns once the detector has synced and
// the workers are running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	if m.reconciler == nil {
		m.mu.Unlock()
		return errors.New("no reconciler configured")
	}

	m.ctx, m.cancelFunc = context.WithCancel(ctx)
	m.running = true
	detector := m.changeDetector
	m.mu.Unlock()

	if detector != nil {
		if err := detector.Start(m.ctx, m.changeChan); err != nil {
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			m.cancelFunc()
			return fmt.Errorf("failed to start change detector: %w", err)
		}
	}

	m.wg.Add(1)
	go m.processChangeEvents()

	for i := 0; i < m.config.WorkerCount; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	logging.Info("ReconcileManager", "Started with %d workers", m.config.WorkerCount)
	return nil
}

// processChangeEvents converts change events to reconcile requests.
func (m *Manager) processChangeEvents() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return

		case event, ok := <-m.changeChan:
			if !ok {
				return
			}
			m.handleChangeEvent(event)
		}
	}
}

// handleChangeEvent queues a request for one change event.
func (m *Manager) handleChangeEvent(event ChangeEvent) {
	logging.Debug("ReconcileManager", "Handling change event: %s %s/%s/%s from %s",
		event.Operation, event.TenantID, event.Namespace, event.Group.Name, event.Source)

	m.metrics.recordEvent(event.Source, event.Operation)

	req := ReconcileRequest{
		TenantID:  event.TenantID,
		Namespace: event.Namespace,
		Group:     event.Group,
		Operation: event.Operation,
		Attempt:   1,
	}

	m.updateStatus(req, StatePending, "")
	if old, ok := m.queue.Add(req); ok {
		logging.Debug("ReconcileManager", "%s of %s replaces pending %s (attempt %d)",
			req.Operation, req.Key(), old.Operation, old.Attempt)
		m.metrics.recordSuperseded(old.Operation)
	}
	m.metrics.setQueueDepth(m.queue.Len())
}

// Enqueue queues a change event directly, bypassing the detector.
func (m *Manager) Enqueue(event ChangeEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Source == "" {
		event.Source = SourceManual
	}
	m.handleChangeEvent(event)
}

// worker processes reconciliation requests from the queue.
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	logging.Debug("ReconcileManager", "Worker %d started", id)

	for {
		req, ok := m.queue.Get(m.ctx)
		if !ok {
			logging.Debug("ReconcileManager", "Worker %d shutting down", id)
			return
		}
		m.metrics.setQueueDepth(m.queue.Len())

		m.processRequest(req)
		m.queue.Done(req)
	}
}

// processRequest handles a single reconciliation request.
func (m *Manager) processRequest(req ReconcileRequest) {
	m.updateStatus(req, StateReconciling, "")

	logging.Debug("ReconcileManager", "Reconciling %s %s (attempt %d)", req.Operation, req.Key(), req.Attempt)

	// A hung Ruler or API server must not block the worker forever
	ctx, cancel := context.WithTimeout(m.ctx, m.config.ReconcileTimeout)
	defer cancel()

	start := time.Now()
	result := m.reconciler.Reconcile(ctx, req)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !result.Fatal {
		if result.Error == nil {
			result.Error = fmt.Errorf("reconciliation timed out after %v", m.config.ReconcileTimeout)
		}
		result.Requeue = true
	}

	m.metrics.recordReconcile(req.Operation, result, time.Since(start))

	// A newer event for the group is queued; its outcome is the one that counts
	if !m.queue.Current(req) {
		logging.Debug("ReconcileManager", "Discarding outcome of %s %s, a newer event is pending", req.Operation, req.Key())
		return
	}

	switch {
	case result.Error != nil:
		m.handleReconcileError(req, result)
	case result.Requeue || result.RequeueAfter > 0:
		m.handleRequeue(req, result)
		m.updateStatus(req, StateSynced, "")
	default:
		m.handleSuccess(req)
	}
}

// handleReconcileError handles a failed reconciliation.
func (m *Manager) handleReconcileError(req ReconcileRequest, result ReconcileResult) {
	errMsg := truncateError(result.Error.Error())

	if result.Fatal {
		logging.Error("ReconcileManager", result.Error, "Reconciliation of %s failed permanently", req.Key())
		m.updateStatus(req, StateFailed, errMsg)
		return
	}

	logging.Warn("ReconcileManager", "Reconciliation failed for %s: %v", req.Key(), result.Error)

	if req.Attempt >= m.config.MaxRetries {
		logging.Error("ReconcileManager", result.Error, "Max retries exceeded for %s", req.Key())
		m.updateStatus(req, StateFailed, errMsg)
		return
	}

	backoff := m.calculateBackoff(req.Attempt)
	if result.RequeueAfter > 0 {
		backoff = result.RequeueAfter
	}

	retry := req
	retry.Attempt++
	retry.LastError = result.Error
	if !m.queue.Retry(retry, backoff) {
		logging.Debug("ReconcileManager", "Dropping retry of %s %s, a newer event is pending", req.Operation, req.Key())
		return
	}
	m.updateStatus(req, StateError, errMsg)
	m.metrics.recordRetry(req.Operation)

	logging.Debug("ReconcileManager", "Requeuing %s after %v (attempt %d)", retry.Key(), backoff, retry.Attempt)
}

// handleRequeue handles a successful reconciliation that asked to run again.
func (m *Manager) handleRequeue(req ReconcileRequest, result ReconcileResult) {
	delay := result.RequeueAfter
	if delay == 0 {
		delay = m.config.InitialBackoff
	}

	if !m.queue.Retry(req, delay) {
		logging.Debug("ReconcileManager", "Dropping requeue of %s, a newer event is pending", req.Key())
		return
	}
	logging.Debug("ReconcileManager", "Requeuing %s after %v", req.Key(), delay)
}

// handleSuccess handles a successful reconciliation.
func (m *Manager) handleSuccess(req ReconcileRequest) {
	logging.Debug("ReconcileManager", "Successfully reconciled %s", req.Key())
	m.updateStatus(req, StateSynced, "")
}

// calculateBackoff computes exponential backoff: initial * 2^(attempt-1),
// capped at MaxBackoff.
func (m *Manager) calculateBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 32 {
		return m.config.MaxBackoff
	}

	backoff := m.config.InitialBackoff * time.Duration(1<<uint(attempt-1))
	if backoff <= 0 || backoff > m.config.MaxBackoff {
		backoff = m.config.MaxBackoff
	}

	return backoff
}

// updateStatus updates the reconciliation status for a request key.
func (m *Manager) updateStatus(req ReconcileRequest, state ReconcileState, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := req.Key()
	status, ok := m.statusTracker[key]
	if !ok {
		status = &ReconcileStatus{
			TenantID:  req.TenantID,
			Namespace: req.Namespace,
			Group:     req.Group.Name,
		}
		m.statusTracker[key] = status
	}

	status.Operation = req.Operation
	status.State = state
	status.LastError = errMsg

	switch state {
	case StateSynced:
		now := time.Now()
		status.LastReconcileTime = &now
		status.RetryCount = 0
	case StateError:
		status.RetryCount++
	}
}

func truncateError(msg string) string {
	return pkgstrings.Truncate(msg, maxStatusErrorLen)
}

// Stop gracefully shuts down the dispatcher.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	logging.Info("ReconcileManager", "Stopping reconciliation manager...")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.changeDetector != nil {
		if err := m.changeDetector.Stop(); err != nil {
			logging.Error("ReconcileManager", err, "Error stopping change detector")
		}
	}

	m.queue.Shutdown()
	m.wg.Wait()

	logging.Info("ReconcileManager", "Reconciliation manager stopped")
	return nil
}

// GetStatus returns a copy of the reconciliation status for a rule group.
func (m *Manager) GetStatus(tenantID, namespace, group string) (ReconcileStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statusTracker[requestKey(tenantID, namespace, group)]
	if !ok {
		return ReconcileStatus{}, false
	}
	return *status, true
}

// GetAllStatuses returns all reconciliation statuses.
func (m *Manager) GetAllStatuses() []ReconcileStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]ReconcileStatus, 0, len(m.statusTracker))
	for _, status := range m.statusTracker {
		statuses = append(statuses, *status)
	}
	return statuses
}

// IsRunning returns whether the manager is running.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// GetQueueLength returns the current queue length.
func (m *Manager) GetQueueLength() int {
	return m.queue.Len()
}
