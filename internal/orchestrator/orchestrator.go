package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"habitat/internal/api"
	"habitat/internal/backend"
	"habitat/internal/catalog"
	"habitat/internal/config"
	"habitat/internal/environment"
	"habitat/internal/monitor"
	"habitat/internal/quota"
	"habitat/internal/reaper"
	"habitat/internal/scaler"
	"habitat/internal/template"
	"habitat/pkg/logging"
)

// Orchestrator coordinates the environment registry, template catalog,
// provisioning backends, quota accounting, health monitoring, and
// reclamation.
type Orchestrator struct {
	mu sync.RWMutex

	store      environment.Store
	catalog    *catalog.Registry
	backends   *backend.Registry
	accountant *quota.Accountant
	cfg        *config.Config
	monitor    *monitor.Monitor
	reaper     *reaper.Reaper
	metrics    *metrics

	subscribers []chan<- EnvironmentStateChangedEvent

	// triggerCache holds parsed trigger sets keyed by template id.
	cacheMu      sync.Mutex
	triggerCache map[string][]scaler.Trigger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// UsageReport pairs the configured limits with current aggregate allocation.
type UsageReport struct {
	Usage  api.ResourceUsage `json:"usage"`
	Limits config.Limits     `json:"limits"`
}

// New wires an orchestrator from its collaborators. Call Close to stop the
// background workers it spawns.
func New(store environment.Store, cat *catalog.Registry, backends *backend.Registry, cfg *config.Config) *Orchestrator {
	baseCtx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		store:        store,
		catalog:      cat,
		backends:     backends,
		accountant:   quota.NewAccountant(store, cfg.Limits, cfg.Cost),
		cfg:          cfg,
		metrics:      newMetrics(),
		triggerCache: make(map[string][]scaler.Trigger),
		baseCtx:      baseCtx,
		cancel:       cancel,
	}
	o.monitor = monitor.New(store, backends, cfg.Monitor.Interval, o.scalingPolicy, o.autoScale)
	o.reaper = reaper.New(store, cfg.Reaper.Interval, cfg.Reaper.TTL, func(ctx context.Context, id string) error {
		return o.DeleteEnvironment(ctx, id, true)
	})
	return o
}

// StartReaper runs the periodic reclamation loop until Close.
func (o *Orchestrator) StartReaper() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.reaper.Run(o.baseCtx)
	}()
}

// Close stops all background work. In-flight provisioning tasks are
// cancelled; their records end up in ERROR.
func (o *Orchestrator) Close() {
	o.cancel()
	o.monitor.Stop()
	o.wg.Wait()
}

// CreateEnvironment validates the request, admits it against quota, and
// registers a PENDING record. Provisioning continues in the background; the
// returned id is valid immediately.
func (o *Orchestrator) CreateEnvironment(req api.CreateEnvironmentRequest) (string, error) {
	return o.createEnvironment(req, "")
}

// createEnvironment is the shared create path. supersededID, when non-empty,
// names the record a restart is about to replace; it is excluded from quota
// accounting so a restart at the ceiling still admits its replacement.
func (o *Orchestrator) createEnvironment(req api.CreateEnvironmentRequest, supersededID string) (string, error) {
	if strings.TrimSpace(req.Owner) == "" {
		return "", fmt.Errorf("owner is required")
	}

	tmpl, err := o.catalog.Get(req.TemplateID)
	if err != nil {
		return "", err
	}
	if _, exists := o.backends.Get(tmpl.Kind); !exists {
		return "", fmt.Errorf("no backend registered for kind %s", tmpl.Kind)
	}
	if err := o.accountant.AdmitReplacing(req.Owner, supersededID); err != nil {
		return "", err
	}

	id := uuid.New().String()
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", tmpl.ID, id[:8])
	}

	merged := template.Merge(tmpl.BaseConfig, req.Config)
	record := environment.New(id, tmpl.ID, name, tmpl.Kind, req.Owner,
		merged, tmpl.Resources, req.Collaborators, tmpl.Scaling.Enabled)
	record.SetStateChangeCallback(o.stateChangeCallback)
	record.RecordMetadata("template_name", tmpl.Name)

	if err := o.store.Put(record); err != nil {
		return "", err
	}
	o.metrics.created.WithLabelValues(string(tmpl.Kind)).Inc()
	logging.Info("orchestrator", "Creating environment %s (%s) from template %s for %s",
		name, tmpl.Kind, tmpl.ID, req.Owner)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.provision(id, tmpl)
	}()
	return id, nil
}

// provision drives one record from PENDING to READY or ERROR. There is no
// automatic retry; a failed environment stays inspectable until reaped.
func (o *Orchestrator) provision(id string, tmpl *api.EnvironmentTemplate) {
	record, exists := o.store.Get(id)
	if !exists {
		return
	}
	if err := record.Transition(api.StateProvisioning); err != nil {
		logging.Error("orchestrator", err, "Cannot start provisioning %s", id)
		return
	}

	b, exists := o.backends.Get(record.Kind())
	if !exists {
		record.Fail(fmt.Errorf("no backend registered for kind %s", record.Kind()))
		o.metrics.provisionFailures.Inc()
		return
	}

	ctx, cancel := context.WithTimeout(o.baseCtx, o.cfg.Provision.Timeout)
	defer cancel()

	endpoints, err := b.Provision(ctx, record, tmpl)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = api.ErrProvisionTimeout
		}
		record.Fail(err)
		o.metrics.provisionFailures.Inc()
		logging.Error("orchestrator", err, "Provisioning %s failed", id)
		return
	}

	if err := record.SetReady(endpoints); err != nil {
		// The record was moved elsewhere while provisioning, e.g. failed by
		// a supervisor. Leave it where it is.
		logging.Warn("orchestrator", "Provisioned %s but cannot mark ready: %v", id, err)
		return
	}
	o.monitor.Watch(o.baseCtx, id)
	logging.Info("orchestrator", "Environment %s ready with %d endpoints", id, len(endpoints))
}

// GetEnvironment returns the full snapshot for id, including uptime and the
// advisory cost estimate.
func (o *Orchestrator) GetEnvironment(id string) (*api.EnvironmentInfo, error) {
	record, exists := o.store.Get(id)
	if !exists {
		return nil, api.NewEnvironmentNotFoundError(id)
	}
	info := record.Snapshot()
	info.Uptime = time.Since(record.CreatedAt())
	info.Cost = o.accountant.EstimateCost(record.Resources(), record.CreatedAt())
	return &info, nil
}

// ListEnvironments returns snapshots for every environment, or only owner's
// when owner is non-empty.
func (o *Orchestrator) ListEnvironments(owner string) []api.EnvironmentInfo {
	var infos []api.EnvironmentInfo
	for _, record := range o.store.List() {
		if owner != "" && record.Owner() != owner {
			continue
		}
		info := record.Snapshot()
		info.Uptime = time.Since(record.CreatedAt())
		info.Cost = o.accountant.EstimateCost(record.Resources(), record.CreatedAt())
		infos = append(infos, info)
	}
	return infos
}

// GetResourceUsage reports aggregate allocation next to the configured
// limits.
func (o *Orchestrator) GetResourceUsage() UsageReport {
	return UsageReport{
		Usage:  o.accountant.AggregateUsage(),
		Limits: o.cfg.Limits,
	}
}

// StopEnvironment gracefully stops a READY environment. Stopping an already
// STOPPED environment is a no-op.
func (o *Orchestrator) StopEnvironment(ctx context.Context, id string) error {
	record, exists := o.store.Get(id)
	if !exists {
		return api.NewEnvironmentNotFoundError(id)
	}
	if record.Status() == api.StateStopped {
		return nil
	}
	if err := record.Transition(api.StateStopping); err != nil {
		return err
	}
	o.monitor.Unwatch(id)

	if b, exists := o.backends.Get(record.Kind()); exists {
		if err := b.Terminate(ctx, record); err != nil {
			terr := &api.TerminateError{Kind: record.Kind(), Cause: err}
			record.Fail(terr)
			return terr
		}
	}
	return record.Transition(api.StateStopped)
}

// DeleteEnvironment removes a record for good. Without force a READY
// environment is stopped gracefully first; STOPPED and ERROR records are
// removed directly. With force the graceful stop is skipped, backend errors
// are logged and swallowed, and an unknown id is a no-op.
func (o *Orchestrator) DeleteEnvironment(ctx context.Context, id string, force bool) error {
	record, exists := o.store.Get(id)
	if !exists {
		if force {
			return nil
		}
		return api.NewEnvironmentNotFoundError(id)
	}

	if force {
		o.monitor.Unwatch(id)
		if b, exists := o.backends.Get(record.Kind()); exists {
			if err := b.Terminate(ctx, record); err != nil {
				logging.Warn("orchestrator", "Force delete %s: backend teardown failed: %v", id, err)
			}
		}
		logging.Info("orchestrator", "Force deleted environment %s", id)
		return o.store.Delete(id)
	}

	if record.Status() == api.StateReady {
		if err := o.StopEnvironment(ctx, id); err != nil {
			return err
		}
	}
	if !record.Status().Terminal() {
		return &api.InvalidStateError{ID: id, Current: record.Status(), Attempted: api.StateStopped}
	}
	if record.Status() == api.StateError {
		// A failed environment can hold half-provisioned resources; tear
		// them down before the record disappears.
		o.monitor.Unwatch(id)
		if b, exists := o.backends.Get(record.Kind()); exists {
			if err := b.Terminate(ctx, record); err != nil {
				logging.Warn("orchestrator", "Delete %s: backend teardown failed: %v", id, err)
			}
		}
	}
	logging.Info("orchestrator", "Deleted environment %s", id)
	return o.store.Delete(id)
}

// RestartEnvironment replaces an environment instead of rebuilding it in
// place: a fresh record is created from the old one's template, config,
// owner, and collaborators, and only then is the old record force-deleted.
// The returned id is the replacement's.
func (o *Orchestrator) RestartEnvironment(ctx context.Context, id string) (string, error) {
	record, exists := o.store.Get(id)
	if !exists {
		return "", api.NewEnvironmentNotFoundError(id)
	}

	newID, err := o.createEnvironment(api.CreateEnvironmentRequest{
		TemplateID:    record.TemplateID(),
		Name:          record.Name(),
		Config:        record.Config(),
		Owner:         record.Owner(),
		Collaborators: record.Collaborators(),
	}, id)
	if err != nil {
		return "", fmt.Errorf("creating replacement for %s: %w", id, err)
	}

	if err := o.DeleteEnvironment(ctx, id, true); err != nil {
		logging.Warn("orchestrator", "Restart of %s: old record not removed: %v", id, err)
	}
	logging.Info("orchestrator", "Restarted %s as %s", id, newID)
	return newID, nil
}

// ScaleEnvironment adjusts an environment's allocation one step in the given
// direction. The SCALING state is the mutual exclusion: a request arriving
// while another scale is in flight gets ScaleInProgressError. A backend
// failure leaves the environment in ERROR; a clamped adjustment returns to
// READY without touching the backend.
func (o *Orchestrator) ScaleEnvironment(ctx context.Context, id string, direction api.ScaleDirection) error {
	if !direction.Valid() {
		return fmt.Errorf("invalid scale direction %q", direction)
	}
	record, exists := o.store.Get(id)
	if !exists {
		return api.NewEnvironmentNotFoundError(id)
	}

	if !record.TryTransition(api.StateReady, api.StateScaling) {
		if record.Status() == api.StateScaling {
			return &api.ScaleInProgressError{ID: id}
		}
		return &api.InvalidStateError{ID: id, Current: record.Status(), Attempted: api.StateScaling}
	}

	if err := o.applyScale(ctx, record, direction); err != nil {
		record.Fail(err)
		return err
	}
	if terr := record.Transition(api.StateReady); terr != nil {
		logging.Error("orchestrator", terr, "Cannot return %s to ready after scaling", id)
	}
	o.metrics.scaleOps.WithLabelValues(string(direction)).Inc()
	return nil
}

func (o *Orchestrator) applyScale(ctx context.Context, record *environment.Record, direction api.ScaleDirection) error {
	min, max := o.instanceBounds(record.TemplateID())
	delta := 1
	if direction == api.ScaleDown {
		delta = -1
	}
	instances, changed := record.AdjustInstances(delta, min, max)
	if !changed {
		logging.Debug("orchestrator", "Scale %s for %s clamped at %d instances", direction, record.ID(), instances)
		return nil
	}

	b, exists := o.backends.Get(record.Kind())
	if !exists {
		return fmt.Errorf("no backend registered for kind %s", record.Kind())
	}
	if err := b.ApplyScale(ctx, record, direction); err != nil {
		// Roll the count back so the record matches the backend.
		record.AdjustInstances(-delta, min, max)
		return err
	}
	logging.Info("orchestrator", "Scaled %s %s to %d instances", record.ID(), direction, instances)
	return nil
}

// instanceBounds reads the template's scaling policy, falling back to a
// fixed single instance when the template is gone or scaling is disabled.
func (o *Orchestrator) instanceBounds(templateID string) (min, max int) {
	tmpl, err := o.catalog.Get(templateID)
	if err != nil || !tmpl.Scaling.Enabled {
		return 1, 1
	}
	min, max = tmpl.Scaling.MinInstances, tmpl.Scaling.MaxInstances
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return min, max
}

// AddCollaborator grants who access to the environment's endpoints.
func (o *Orchestrator) AddCollaborator(id, who string) error {
	record, exists := o.store.Get(id)
	if !exists {
		return api.NewEnvironmentNotFoundError(id)
	}
	if strings.TrimSpace(who) == "" {
		return fmt.Errorf("collaborator name is required")
	}
	record.AddCollaborator(who)
	logging.Info("orchestrator", "Added collaborator %s to %s", who, id)
	return nil
}

// GetAccess returns the environment's endpoints for an authorized requester
// and records the access. Only READY environments expose endpoints.
func (o *Orchestrator) GetAccess(id, requester string) (map[string]string, error) {
	record, exists := o.store.Get(id)
	if !exists {
		return nil, api.NewEnvironmentNotFoundError(id)
	}

	authorized := requester == record.Owner()
	for _, collaborator := range record.Collaborators() {
		if requester == collaborator {
			authorized = true
			break
		}
	}
	if !authorized {
		return nil, fmt.Errorf("%s has no access to environment %s", requester, id)
	}
	if record.Status() != api.StateReady {
		return nil, &api.InvalidStateError{ID: id, Current: record.Status(), Attempted: api.StateReady}
	}

	record.Touch()
	return record.Endpoints(), nil
}

// CleanupExpired runs one reaper sweep and returns the reclaimed ids.
func (o *Orchestrator) CleanupExpired(ctx context.Context) []string {
	reclaimed := o.reaper.Sweep(ctx)
	for range reclaimed {
		o.metrics.reaped.Inc()
	}
	return reclaimed
}

// WaitReady blocks until the environment reaches READY, STOPPED, or ERROR,
// or ctx expires. It returns the final snapshot; a failed provision is a
// normal return with Status ERROR, not an error.
func (o *Orchestrator) WaitReady(ctx context.Context, id string) (*api.EnvironmentInfo, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		info, err := o.GetEnvironment(id)
		if err != nil {
			return nil, err
		}
		if info.Status == api.StateReady || info.Status.Terminal() {
			return info, nil
		}
		select {
		case <-ctx.Done():
			return info, ctx.Err()
		case <-ticker.C:
		}
	}
}

// scalingPolicy resolves an environment's parsed trigger set and instance
// bounds for the monitor.
func (o *Orchestrator) scalingPolicy(id string) ([]scaler.Trigger, int, int, bool) {
	record, exists := o.store.Get(id)
	if !exists || !record.AutoScaling() {
		return nil, 0, 0, false
	}
	tmpl, err := o.catalog.Get(record.TemplateID())
	if err != nil || !tmpl.Scaling.Enabled {
		return nil, 0, 0, false
	}

	o.cacheMu.Lock()
	triggers, cached := o.triggerCache[tmpl.ID]
	if !cached {
		triggers, err = scaler.ParseTriggers(tmpl.Scaling.Triggers)
		if err != nil {
			o.cacheMu.Unlock()
			logging.Warn("orchestrator", "Template %s has invalid triggers: %v", tmpl.ID, err)
			return nil, 0, 0, false
		}
		o.triggerCache[tmpl.ID] = triggers
	}
	o.cacheMu.Unlock()

	min, max := o.instanceBounds(tmpl.ID)
	return triggers, min, max, true
}

// autoScale is the monitor's hook; concurrent wishes for the same
// environment collapse into one applied operation.
func (o *Orchestrator) autoScale(id string, direction api.ScaleDirection, reason string) {
	err := o.ScaleEnvironment(o.baseCtx, id, direction)
	if err != nil && !api.IsScaleInProgress(err) && !api.IsNotFound(err) && !api.IsInvalidState(err) {
		logging.Warn("orchestrator", "Auto-scale %s for %s failed: %v", direction, id, err)
	}
}
