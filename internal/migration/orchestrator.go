package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/remote"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// ErrMigrationInProgress is returned when a second migration attempt is
// started while one is in flight. Concurrent attempts would corrupt the
// restore point, so they are rejected, never interleaved.
var ErrMigrationInProgress = errors.New("migration: attempt already in progress")

// ErrNotStarted is returned by operations that require Begin to have run.
var ErrNotStarted = errors.New("migration: wizard not started")

// defaultGraceDelay is how long the restore point survives a successful
// migration, tolerating a late user-initiated rollback.
const defaultGraceDelay = 10 * time.Minute

// OrchestratorConfig carries the optional orchestrator collaborators.
type OrchestratorConfig struct {
	Logger     zerolog.Logger
	Metrics    MetricsRecorder
	Now        func() time.Time
	GraceDelay time.Duration
}

// Orchestrator drives the migration wizard: a step machine sequencing
// detection, review, backup, transfer, and completion, aggregating per-type
// success counts and per-record errors into a single MigrationResult.
type Orchestrator struct {
	store    localstore.Store
	writer   remote.Writer
	reader   *Reader
	backups  *BackupManager
	rollback *RollbackManager
	norm     *Normalizer
	log      zerolog.Logger
	metrics  MetricsRecorder
	nowFn    func() time.Time
	afterFn  func(time.Duration, func()) *time.Timer
	grace    time.Duration

	mu         sync.Mutex
	step       Step
	migrating  bool
	dataset    domain.LocalDataset
	stats      domain.MigrationStats
	validation ValidationReport
	clean      domain.CleanDataset
	result     *domain.MigrationResult
}

// NewOrchestrator wires the pipeline components around a store and a remote
// writer.
func NewOrchestrator(store localstore.Store, writer remote.Writer, backups *BackupManager, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Metrics == nil {
		cfg.Metrics = NoopMetrics{}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = defaultGraceDelay
	}
	return &Orchestrator{
		store:    store,
		writer:   writer,
		reader:   NewReader(store, cfg.Logger),
		backups:  backups,
		rollback: NewRollbackManager(store, backups, cfg.Logger),
		norm:     NewNormalizer(cfg.Now),
		log:      cfg.Logger.With().Str("component", "orchestrator").Logger(),
		metrics:  cfg.Metrics,
		nowFn:    cfg.Now,
		afterFn:  time.AfterFunc,
		grace:    cfg.GraceDelay,
	}
}

// Step returns the wizard's current step; empty before Begin.
func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// Stats returns the counts shown on the review screen.
func (o *Orchestrator) Stats() domain.MigrationStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Validation returns the defect list gathered at Begin.
func (o *Orchestrator) Validation() ValidationReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.validation
}

// Result returns the outcome of the last migration attempt, or nil.
func (o *Orchestrator) Result() *domain.MigrationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Begin probes the store and, when migratable data exists, loads it and
// advances to review. When nothing is migratable the wizard is skipped
// entirely: no state is entered and the store is untouched.
func (o *Orchestrator) Begin() (domain.MigrationStats, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step != "" {
		return domain.MigrationStats{}, false, fmt.Errorf("wizard already started (step %s)", o.step)
	}
	if !o.reader.HasMigratableData() {
		return domain.MigrationStats{}, true, nil
	}
	o.step = StepDetect
	o.loadLocked()
	if err := o.transitionLocked(StepReview); err != nil {
		return domain.MigrationStats{}, false, err
	}
	return o.stats, false, nil
}

// loadLocked re-reads on-device state: dataset, stats, validation, and the
// normalized transfer set.
func (o *Orchestrator) loadLocked() {
	o.dataset = o.reader.ReadDataset()
	o.stats = ComputeStats(o.dataset)
	o.validation = Validate(o.dataset)
	o.clean = o.norm.Prepare(o.dataset)
	o.result = nil
}

// ConfirmReview records user confirmation of the review screen.
func (o *Orchestrator) ConfirmReview() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step == "" {
		return ErrNotStarted
	}
	return o.transitionLocked(StepBackup)
}

// CreateBackup produces a backup artifact (exporting it when a blob store is
// configured) and advances to migrate.
func (o *Orchestrator) CreateBackup(ctx context.Context) (domain.BackupArtifact, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step != StepBackup {
		return domain.BackupArtifact{}, fmt.Errorf("backup not available from step %q", o.step)
	}
	artifact, payload, err := o.backups.CreateArtifact(o.dataset)
	if err != nil {
		return domain.BackupArtifact{}, err
	}
	if o.backups.blobs != nil {
		if _, err := o.backups.ExportArtifact(ctx, artifact, payload); err != nil {
			return domain.BackupArtifact{}, err
		}
	}
	if err := o.transitionLocked(StepMigrate); err != nil {
		return domain.BackupArtifact{}, err
	}
	return artifact, nil
}

// SkipBackup advances to migrate without producing an artifact.
func (o *Orchestrator) SkipBackup() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step == "" {
		return ErrNotStarted
	}
	return o.transitionLocked(StepMigrate)
}

// Migrate transfers the normalized dataset to the remote service in
// referential dependency order and reconciles counts afterwards. Per-record
// failures are collected and do not abort remaining records or types; only
// an integrity mismatch makes the attempt fail. A second invocation while
// one is in flight is rejected with ErrMigrationInProgress.
func (o *Orchestrator) Migrate(ctx context.Context) (domain.MigrationResult, error) {
	o.mu.Lock()
	if o.step != StepMigrate {
		o.mu.Unlock()
		return domain.MigrationResult{}, fmt.Errorf("migrate not available from step %q", o.step)
	}
	if o.migrating {
		o.mu.Unlock()
		return domain.MigrationResult{}, ErrMigrationInProgress
	}
	o.migrating = true
	clean := o.clean
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.migrating = false
		o.mu.Unlock()
	}()

	started := o.nowFn()
	result := domain.MigrationResult{
		Migrated:  make(map[domain.RecordType]int),
		StartedAt: started,
	}

	// The restore point is acquired immediately before the first remote
	// write so a failed attempt can always roll back to this exact state.
	if err := o.backups.CreateRestorePoint(o.dataset); err != nil {
		return o.failLocked(result, fmt.Sprintf("restore point: %v", err))
	}

	for _, t := range domain.TransferOrder() {
		failed := 0
		for i, record := range clean.Records[t] {
			if ctx.Err() != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s[%d]: migration abandoned: %v", t, i, ctx.Err()))
				failed++
				continue
			}
			if _, err := o.writer.Add(ctx, t, record); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s[%d] %s: %v", t, i, record.ID(), err))
				failed++
				continue
			}
			result.Migrated[t]++
		}
		o.metrics.ObserveRecords(t, result.Migrated[t], failed)
	}

	baseline := domain.MigrationStats{Counts: make(map[domain.RecordType]int)}
	for t, records := range clean.Records {
		baseline.Counts[t] = len(records)
	}
	integrity := CheckIntegrity(baseline, result.Migrated)
	result.FinishedAt = o.nowFn()

	if !integrity.OK {
		result.Errors = append(result.Errors, integrity.Mismatches...)
		return o.failLocked(result, "")
	}

	return o.completeLocked(result)
}

// completeLocked finalizes a verified migration: persist the completion
// state, purge the local buckets, and schedule the restore point release
// after the grace delay.
func (o *Orchestrator) completeLocked(result domain.MigrationResult) (domain.MigrationResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := SaveState(o.store, domain.MigrationState{Completed: true, CompletedAt: result.FinishedAt}); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("persist completion state: %v", err))
		return o.failInnerLocked(result)
	}
	for _, t := range domain.TransferOrder() {
		if err := o.store.Delete(domain.BucketKey(t)); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("purge bucket %s: %v", domain.BucketKey(t), err))
			return o.failInnerLocked(result)
		}
	}
	o.afterFn(o.grace, func() {
		if err := o.backups.ReleaseRestorePoint(); err != nil {
			o.log.Warn().Err(err).Msg("restore point release failed")
		}
	})

	result.Success = true
	o.result = &result
	if err := o.transitionLocked(StepComplete); err != nil {
		return result, err
	}
	o.metrics.ObserveMigration(true, result.FinishedAt.Sub(result.StartedAt))
	o.log.Info().Int("migrated", result.TotalMigrated()).Msg("migration complete")
	return result, nil
}

func (o *Orchestrator) failLocked(result domain.MigrationResult, extra string) (domain.MigrationResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if extra != "" {
		result.Errors = append(result.Errors, extra)
	}
	return o.failInnerLocked(result)
}

// failInnerLocked moves the wizard to the error step. On-device data is NOT
// purged: the user may retry or roll back.
func (o *Orchestrator) failInnerLocked(result domain.MigrationResult) (domain.MigrationResult, error) {
	result.Success = false
	if result.FinishedAt.IsZero() {
		result.FinishedAt = o.nowFn()
	}
	o.result = &result
	if err := o.transitionLocked(StepError); err != nil {
		return result, err
	}
	o.metrics.ObserveMigration(false, result.FinishedAt.Sub(result.StartedAt))
	o.log.Warn().Int("errors", len(result.Errors)).Msg("migration failed")
	return result, nil
}

// Retry re-enters the flow from the top after an error, re-reading current
// on-device state.
func (o *Orchestrator) Retry() (domain.MigrationStats, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.transitionLocked(StepReview); err != nil {
		return domain.MigrationStats{}, err
	}
	o.loadLocked()
	return o.stats, nil
}

// Rollback restores the on-device store from the active restore point and
// returns to review. Without a restore point the step is left unchanged.
func (o *Orchestrator) Rollback() (domain.MigrationStats, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.step != StepError {
		return domain.MigrationStats{}, fmt.Errorf("rollback not available from step %q", o.step)
	}
	restored, err := o.rollback.Restore(nil)
	if err != nil {
		return domain.MigrationStats{}, err
	}
	if !restored {
		return domain.MigrationStats{}, ErrNoRestorePoint
	}
	if err := o.transitionLocked(StepReview); err != nil {
		return domain.MigrationStats{}, err
	}
	o.loadLocked()
	return o.stats, nil
}

func (o *Orchestrator) transitionLocked(target Step) error {
	if err := o.step.ValidateTransition(target); err != nil {
		return err
	}
	o.metrics.ObserveTransition(o.step, target)
	o.log.Debug().Str("from", o.step.String()).Str("to", target.String()).Msg("step transition")
	o.step = target
	return nil
}
