package capture

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/scrapbook/pkg/storage"
)

// scriptPrompter replays canned answers; it records every prompt text.
type scriptPrompter struct {
	answers []string
	prompts []string
}

func (p *scriptPrompter) Prompt(text string) (string, error) {
	p.prompts = append(p.prompts, text)
	if len(p.answers) == 0 {
		return "", errors.New("script exhausted")
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func newAllocStore(t *testing.T) storage.Store {
	t.Helper()
	return storage.NewFileStore(afero.NewMemMapFs())
}

func TestNewAllocator_EmptyDirStartsAtZero(t *testing.T) {
	a, err := NewAllocator(newAllocStore(t), "out/links", "result", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Next())
	assert.Equal(t, "result-00000.txt", a.Filename(0, ".txt"))
}

func TestNewAllocator_ResumesPastHighestExisting(t *testing.T) {
	store := newAllocStore(t)
	require.NoError(t, store.MkdirAll("out/links"))
	for _, name := range []string{
		"result-00000.txt",
		"result-00007.txt",
		"result-00003.txt",
		"notes.md",          // ignored: wrong pattern
		"other-00099.txt",   // ignored: wrong prefix
		"result-banana.txt", // ignored: non-numeric
	} {
		require.NoError(t, store.WriteArtifact("out/links/"+name, []byte("x")))
	}

	a, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)
	assert.Equal(t, 8, a.Next())
}

func TestNewAllocator_RestartAfterSequentialWrites(t *testing.T) {
	store := newAllocStore(t)
	a, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)

	prompter := &scriptPrompter{}
	for i := 0; i < 4; i++ {
		n, path, err := a.Reserve(prompter, ".txt")
		require.NoError(t, err)
		assert.Equal(t, i, n)
		require.NoError(t, store.WriteArtifact(path, []byte("x")))
		a.Commit()
	}

	restarted, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)
	assert.Equal(t, 4, restarted.Next())
	assert.Empty(t, prompter.prompts, "no collisions expected")
}

func TestReserve_CollisionPromptsForNewStart(t *testing.T) {
	store := newAllocStore(t)
	a, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)

	// Manually drop a file into the slot the allocator will try first.
	require.NoError(t, store.WriteArtifact("out/links/result-00000.txt", []byte("manual")))
	a.next = 0 // simulate the stale counter the collision guard exists for

	prompter := &scriptPrompter{answers: []string{"10"}}
	n, path, err := a.Reserve(prompter, ".txt")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "out/links/result-00010.txt", path)
	require.Len(t, prompter.prompts, 1)
	assert.Contains(t, prompter.prompts[0], "result-00000.txt already exists")
}

func TestReserve_RejectsBadInputAndRePrompts(t *testing.T) {
	store := newAllocStore(t)
	a, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)
	require.NoError(t, store.WriteArtifact("out/links/result-00000.txt", []byte("manual")))
	a.next = 0

	prompter := &scriptPrompter{answers: []string{"abc", "-3", "2"}}
	n, _, err := a.Reserve(prompter, ".txt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, prompter.prompts, 3)
}

func TestReserve_PrompterFailureIsCollision(t *testing.T) {
	store := newAllocStore(t)
	a, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)
	require.NoError(t, store.WriteArtifact("out/links/result-00000.txt", []byte("manual")))
	a.next = 0

	_, _, err = a.Reserve(&scriptPrompter{}, ".txt")
	assert.ErrorIs(t, err, ErrArtifactCollision)
}

func TestReserve_ReplacementNumberStillOccupied(t *testing.T) {
	store := newAllocStore(t)
	a, err := NewAllocator(store, "out/links", "result", 5)
	require.NoError(t, err)
	require.NoError(t, store.WriteArtifact("out/links/result-00000.txt", []byte("a")))
	require.NoError(t, store.WriteArtifact("out/links/result-00005.txt", []byte("b")))
	a.next = 0

	// First answer lands on another occupied slot; the allocator checks
	// again and prompts again.
	prompter := &scriptPrompter{answers: []string{"5", "6"}}
	n, _, err := a.Reserve(prompter, ".txt")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestCommitRollback(t *testing.T) {
	a, err := NewAllocator(newAllocStore(t), "out/links", "result", 5)
	require.NoError(t, err)

	a.Commit()
	a.Commit()
	assert.Equal(t, 2, a.Next())

	freed := a.Rollback()
	assert.Equal(t, 1, freed)
	assert.Equal(t, 1, a.Next())
}
