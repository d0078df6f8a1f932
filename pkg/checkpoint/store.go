package checkpoint

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/trialpipe/trialpipe/pkg/dataset"
	"github.com/trialpipe/trialpipe/pkg/observability"
)

// DefaultInterval is how many processed items a collection loop accumulates
// between flushes.
const DefaultInterval = 50

// csvExtension is the extension of the human-readable payload mirror.
const csvExtension = ".csv"

// dirPermissions is the mode for created phase directories.
const dirPermissions = 0o755

// Counters holds per-phase auxiliary bookkeeping carried alongside the
// payload: which batches failed, how many items the run expects in total,
// and which source documents yielded no references.
type Counters struct {
	TotalExpected int
	FailedBatches []int
	NoReferences  []string
}

// Snapshot is one persisted checkpoint: the progress cursor, the accumulated
// payload and side counters at flush time.
type Snapshot struct {
	Phase      Phase
	Cursor     int
	Payload    dataset.Dataset
	Counters   Counters
	CapturedAt time.Time
}

// ConfirmFunc asks an operator to confirm a destructive operation. It
// returns true only on explicit affirmative confirmation.
type ConfirmFunc func(prompt string) bool

// DenyConfirm is the default ConfirmFunc: it always refuses, which makes
// destructive cleanup a no-op in non-interactive contexts.
func DenyConfirm(string) bool {
	return false
}

// Store persists and restores per-phase checkpoints under a single root.
type Store struct {
	root     string
	codec    Codec
	confirm  ConfirmFunc
	interval int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the snapshot codec (default gob).
func WithCodec(codec Codec) Option {
	return func(s *Store) { s.codec = codec }
}

// WithConfirm sets the confirmation capability used by cleanup (default deny).
func WithConfirm(confirm ConfirmFunc) Option {
	return func(s *Store) { s.confirm = confirm }
}

// WithInterval sets the flush interval (default DefaultInterval).
func WithInterval(interval int) Option {
	return func(s *Store) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Store) { s.metrics = metrics }
}

// NewStore creates a checkpoint store rooted at the given directory.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root:     root,
		codec:    NewGobCodec(),
		confirm:  DenyConfirm,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Interval returns the configured flush interval.
func (s *Store) Interval() int {
	return s.interval
}

// ShouldFlush reports whether a collection loop should flush after processing
// the item at the given zero-based index.
func (s *Store) ShouldFlush(index int) bool {
	return (index+1)%s.interval == 0
}

// phaseDir returns the storage directory for a phase.
func (s *Store) phaseDir(phase Phase) string {
	return filepath.Join(s.root, string(phase))
}

// snapshotPath returns the primary snapshot path for a phase and cursor.
func (s *Store) snapshotPath(phase Phase, cursor int) string {
	name := phase.filePrefix() + formatCursor(cursor) + s.codec.Extension()

	return filepath.Join(s.phaseDir(phase), name)
}

// Save writes a full snapshot of the phase's progress. Re-saving a cursor
// overwrites that cursor's files. When the payload is non-empty a CSV mirror
// is also written for human inspection; the mirror is best-effort and its
// failure never fails the save.
func (s *Store) Save(phase Phase, cursor int, payload *dataset.Dataset, counters Counters) error {
	if !phase.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}

	if cursor < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCursor, cursor)
	}

	if payload == nil {
		payload = dataset.New()
	}

	err := os.MkdirAll(s.phaseDir(phase), dirPermissions)
	if err != nil {
		return fmt.Errorf("create phase dir: %w", err)
	}

	snapshot := &Snapshot{
		Phase:      phase,
		Cursor:     cursor,
		Payload:    *payload,
		Counters:   counters,
		CapturedAt: time.Now(),
	}

	err = s.writeSnapshot(phase, cursor, snapshot)
	if err != nil {
		return err
	}

	s.writeMirror(phase, cursor, payload)

	if s.metrics != nil {
		s.metrics.SnapshotSaves.WithLabelValues(string(phase)).Inc()
	}

	s.logger.Debug("checkpoint saved",
		"phase", phase,
		"cursor", cursor,
		"records", payload.Len(),
	)

	return nil
}

// writeSnapshot encodes the snapshot to its durable file.
func (s *Store) writeSnapshot(phase Phase, cursor int, snapshot *Snapshot) error {
	file, err := os.Create(s.snapshotPath(phase, cursor))
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer file.Close()

	err = s.codec.Encode(file, snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return nil
}

// writeMirror writes the human-readable CSV rendering of the payload.
func (s *Store) writeMirror(phase Phase, cursor int, payload *dataset.Dataset) {
	if payload.Len() == 0 {
		return
	}

	name := phase.filePrefix() + formatCursor(cursor) + csvExtension
	path := filepath.Join(s.phaseDir(phase), name)

	err := payload.SaveCSV(path)
	if err != nil {
		s.logger.Warn("checkpoint csv mirror failed", "phase", phase, "path", path, "error", err)
	}
}

// LoadLatest restores the maximum-cursor snapshot for the phase. It returns
// (nil, nil) when the phase has no snapshots yet, which callers interpret as
// a fresh run from cursor 0 with an empty payload. A corrupt snapshot
// surfaces as a decode error; the store does not fall back to older cursors.
func (s *Store) LoadLatest(phase Phase) (*Snapshot, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}

	path, found, err := s.latestSnapshotPath(phase)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	var snapshot Snapshot

	err = s.codec.Decode(file, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if s.metrics != nil {
		s.metrics.SnapshotLoads.WithLabelValues(string(phase)).Inc()
	}

	s.logger.Info("checkpoint loaded",
		"phase", phase,
		"cursor", snapshot.Cursor,
		"records", humanize.Comma(int64(snapshot.Payload.Len())),
		"captured_at", snapshot.CapturedAt.Format(time.RFC3339),
	)

	return &snapshot, nil
}

// latestSnapshotPath scans the phase directory for the maximum-cursor
// snapshot file. Cursors are compared numerically, not lexicographically.
func (s *Store) latestSnapshotPath(phase Phase) (string, bool, error) {
	dir := s.phaseDir(phase)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("scan phase dir: %w", err)
	}

	prefix := phase.filePrefix()
	ext := s.codec.Extension()

	best := -1

	var bestName string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		cursor, parseErr := parseCursor(entry.Name(), prefix, ext)
		if parseErr != nil {
			// CSV mirrors and foreign files live in the same directory.
			continue
		}

		if cursor > best {
			best = cursor
			bestName = entry.Name()
		}
	}

	if best < 0 {
		return "", false, nil
	}

	return filepath.Join(dir, bestName), true, nil
}

// Cleanup recursively deletes the entire checkpoint root. When confirm is
// true the configured ConfirmFunc must affirm first; a refusal aborts and
// reports false. A missing root is a successful no-op.
func (s *Store) Cleanup(confirm bool) (bool, error) {
	_, err := os.Stat(s.root)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("no checkpoint directory found", "root", s.root)

		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat checkpoint root: %w", err)
	}

	if confirm && !s.confirm(fmt.Sprintf("Delete ALL checkpoints in %s? (yes/no): ", s.root)) {
		s.logger.Info("checkpoint cleanup cancelled")

		return false, nil
	}

	err = os.RemoveAll(s.root)
	if err != nil {
		return false, fmt.Errorf("remove checkpoint root: %w", err)
	}

	s.logger.Info("all checkpoints deleted", "root", s.root)

	return true, nil
}

// CleanupPhase recursively deletes one phase's checkpoints, with the same
// confirmation contract as Cleanup.
func (s *Store) CleanupPhase(phase Phase, confirm bool) (bool, error) {
	if !phase.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}

	dir := s.phaseDir(phase)

	_, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("no checkpoints found for phase", "phase", phase)

		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat phase dir: %w", err)
	}

	if confirm && !s.confirm(fmt.Sprintf("Delete checkpoints for %s? (yes/no): ", phase)) {
		s.logger.Info("checkpoint cleanup cancelled", "phase", phase)

		return false, nil
	}

	err = os.RemoveAll(dir)
	if err != nil {
		return false, fmt.Errorf("remove phase dir: %w", err)
	}

	s.logger.Info("checkpoints deleted", "phase", phase, "dir", dir)

	return true, nil
}
