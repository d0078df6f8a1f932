package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialpipe/trialpipe/pkg/dataset"
)

func testPayload(n int) *dataset.Dataset {
	ds := dataset.New("PMID", "title")

	for i := range n {
		ds.Append(dataset.Row{"PMID": formatCursor(i), "title": "row"})
	}

	return ds
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	payload := testPayload(3)
	counters := Counters{TotalExpected: 10, FailedBatches: []int{2}, NoReferences: []string{"123"}}

	err := store.Save(PhaseCrossRef, 50, payload, counters)
	require.NoError(t, err)

	snapshot, err := store.LoadLatest(PhaseCrossRef)

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, PhaseCrossRef, snapshot.Phase)
	assert.Equal(t, 50, snapshot.Cursor)
	assert.Equal(t, 3, snapshot.Payload.Len())
	assert.Equal(t, counters, snapshot.Counters)
	assert.False(t, snapshot.CapturedAt.IsZero())
}

func TestStore_LoadLatest_PicksMaxCursorNumerically(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	for _, cursor := range []int{0, 100, 50, 150} {
		err := store.Save(PhasePubMed, cursor, testPayload(cursor), Counters{})
		require.NoError(t, err)
	}

	snapshot, err := store.LoadLatest(PhasePubMed)

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 150, snapshot.Cursor)
	assert.Equal(t, 150, snapshot.Payload.Len())
}

func TestStore_LoadLatest_NoCheckpoints(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	snapshot, err := store.LoadLatest(PhaseTrials)

	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestStore_LoadLatest_IgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	err := store.Save(PhaseCTGov, 50, testPayload(1), Counters{})
	require.NoError(t, err)

	// CSV mirrors and unrelated files share the phase directory.
	dir := filepath.Join(root, string(PhaseCTGov))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, PhaseCTGov.filePrefix()+"99999.tmp"), []byte("x"), 0o644))

	snapshot, err := store.LoadLatest(PhaseCTGov)

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 50, snapshot.Cursor)
}

func TestStore_Save_WritesCSVMirror(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	err := store.Save(PhaseAbstracts, 50, testPayload(2), Counters{})
	require.NoError(t, err)

	mirror := filepath.Join(root, string(PhaseAbstracts), PhaseAbstracts.filePrefix()+"00050.csv")

	ds, err := dataset.LoadCSV(mirror)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestStore_Save_OverwritesSameCursor(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(PhasePubMed, 50, testPayload(1), Counters{}))
	require.NoError(t, store.Save(PhasePubMed, 50, testPayload(5), Counters{}))

	snapshot, err := store.LoadLatest(PhasePubMed)

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 5, snapshot.Payload.Len())
}

func TestStore_Save_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	err := store.Save(Phase("bogus"), 0, testPayload(1), Counters{})
	require.ErrorIs(t, err, ErrUnknownPhase)

	err = store.Save(PhasePubMed, -1, testPayload(1), Counters{})
	require.ErrorIs(t, err, ErrNegativeCursor)
}

func TestStore_LZ4Codec_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithCodec(NewLZ4Codec(NewGobCodec())))

	err := store.Save(PhaseAnalysis, 100, testPayload(4), Counters{})
	require.NoError(t, err)

	snapshot, err := store.LoadLatest(PhaseAnalysis)

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 100, snapshot.Cursor)
	assert.Equal(t, 4, snapshot.Payload.Len())
}

func TestStore_Cleanup_DeniedLeavesFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root) // Default confirm denies.

	require.NoError(t, store.Save(PhasePubMed, 50, testPayload(1), Counters{}))

	done, err := store.Cleanup(true)

	require.NoError(t, err)
	assert.False(t, done)

	snapshot, err := store.LoadLatest(PhasePubMed)
	require.NoError(t, err)
	assert.NotNil(t, snapshot)
}

func TestStore_Cleanup_Confirmed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root, WithConfirm(func(string) bool { return true }))

	require.NoError(t, store.Save(PhasePubMed, 50, testPayload(1), Counters{}))

	done, err := store.Cleanup(true)

	require.NoError(t, err)
	assert.True(t, done)

	_, err = os.Stat(root)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_CleanupPhase_MissingIsNoOp(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	done, err := store.CleanupPhase(PhaseTrials, true)

	require.NoError(t, err)
	assert.True(t, done)
}

func TestStore_CleanupPhase_OnlyTargetPhase(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithConfirm(func(string) bool { return true }))

	require.NoError(t, store.Save(PhasePubMed, 50, testPayload(1), Counters{}))
	require.NoError(t, store.Save(PhaseCrossRef, 50, testPayload(1), Counters{}))

	done, err := store.CleanupPhase(PhasePubMed, true)

	require.NoError(t, err)
	assert.True(t, done)

	gone, err := store.LoadLatest(PhasePubMed)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.LoadLatest(PhaseCrossRef)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestStore_ShouldFlush(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithInterval(50))

	assert.False(t, store.ShouldFlush(0))
	assert.True(t, store.ShouldFlush(49))
	assert.False(t, store.ShouldFlush(50))
	assert.True(t, store.ShouldFlush(99))
}
