package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brettbedarf/webfiles"
	"github.com/brettbedarf/webfiles/internal/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const base = "/data"

func newMemExecutor(t *testing.T, pub webfiles.Publisher) (*Executor, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(base, 0o755))
	return NewExecutor(fs, pub), fs
}

func kindIs(kind webfiles.EventKind, name string) any {
	return mock.MatchedBy(func(ev webfiles.Event) bool {
		return ev.Kind == kind && ev.Filename == name && !ev.Timestamp.IsZero()
	})
}

func TestExecutor_CreateReadRoundTrip(t *testing.T) {
	t.Parallel()

	pub := &mocks.MockPublisher{}
	pub.On("Publish", kindIs(webfiles.FileCreated, "a.txt")).Return().Once()
	e, _ := newMemExecutor(t, pub)
	ctx := context.Background()
	path := base + "/a.txt"

	require.NoError(t, e.Create(ctx, path, "a.txt", "hello"))
	got, err := e.Read(ctx, path)

	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestExecutor_CreateOverwrites(t *testing.T) {
	t.Parallel()

	e, _ := newMemExecutor(t, nil)
	ctx := context.Background()
	path := base + "/a.txt"

	require.NoError(t, e.Create(ctx, path, "a.txt", "a much longer first body"))
	require.NoError(t, e.Create(ctx, path, "a.txt", "second"))

	got, err := e.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "second", got, "create must fully replace previous content")
}

func TestExecutor_UpdateAppends(t *testing.T) {
	t.Parallel()

	pub := &mocks.MockPublisher{}
	pub.On("Publish", kindIs(webfiles.FileCreated, "a.txt")).Return().Once()
	e, _ := newMemExecutor(t, pub)
	ctx := context.Background()
	path := base + "/a.txt"

	require.NoError(t, e.Create(ctx, path, "a.txt", "c1"))
	require.NoError(t, e.Update(ctx, path, "c2"))
	require.NoError(t, e.Update(ctx, path, "c3"))

	got, err := e.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "c1c2c3", got)
	pub.AssertNumberOfCalls(t, "Publish", 1) // update never publishes
}

func TestExecutor_UpdateMissingIsNotFound(t *testing.T) {
	t.Parallel()

	e, fs := newMemExecutor(t, &mocks.MockPublisher{})
	path := base + "/never.txt"

	err := e.Update(context.Background(), path, "x")

	assert.ErrorIs(t, err, webfiles.ErrNotFound)
	exists, _ := afero.Exists(fs, path)
	assert.False(t, exists, "update must not create the file")
}

func TestExecutor_DeleteLifecycle(t *testing.T) {
	t.Parallel()

	pub := &mocks.MockPublisher{}
	pub.On("Publish", kindIs(webfiles.FileCreated, "a.txt")).Return().Once()
	pub.On("Publish", kindIs(webfiles.FileDeleted, "a.txt")).Return().Once()
	e, _ := newMemExecutor(t, pub)
	ctx := context.Background()
	path := base + "/a.txt"

	assert.ErrorIs(t, e.Delete(ctx, path, "a.txt"), webfiles.ErrNotFound)

	require.NoError(t, e.Create(ctx, path, "a.txt", "x"))
	require.NoError(t, e.Delete(ctx, path, "a.txt"))

	_, err := e.Read(ctx, path)
	assert.ErrorIs(t, err, webfiles.ErrNotFound)
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestExecutor_ReadMissingIsNotFound(t *testing.T) {
	t.Parallel()

	e, _ := newMemExecutor(t, nil)
	_, err := e.Read(context.Background(), base+"/missing")
	assert.ErrorIs(t, err, webfiles.ErrNotFound)
}

func TestExecutor_CreateMissingParentIsNotFound(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) (afero.Fs, string){
		"os": func(t *testing.T) (afero.Fs, string) {
			return afero.NewOsFs(), t.TempDir()
		},
		"memory": func(t *testing.T) (afero.Fs, string) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll(base, 0o755))
			return fs, base
		},
	}
	for name, newFs := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fs, dir := newFs(t)
			pub := &mocks.MockPublisher{}
			e := NewExecutor(fs, pub)

			err := e.Create(context.Background(), filepath.Join(dir, "no", "such", "f.txt"), "no/such/f.txt", "x")
			assert.ErrorIs(t, err, webfiles.ErrNotFound)
			pub.AssertNotCalled(t, "Publish", mock.Anything)

			exists, err := afero.DirExists(fs, filepath.Join(dir, "no"))
			require.NoError(t, err)
			assert.False(t, exists, "parent directory must not be created")
		})
	}
}

func TestExecutor_CreateUnderFileIsIOFailure(t *testing.T) {
	t.Parallel()

	e, fs := newMemExecutor(t, nil)
	require.NoError(t, afero.WriteFile(fs, base+"/plain.txt", []byte("x"), 0o644))

	err := e.Create(context.Background(), base+"/plain.txt/child.txt", "plain.txt/child.txt", "y")
	assert.ErrorIs(t, err, webfiles.ErrIO)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestExecutor_DirectoryTargetsAreIOFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	pub := &mocks.MockPublisher{}
	e := NewExecutor(afero.NewOsFs(), pub)
	ctx := context.Background()

	err := e.Create(ctx, sub, "sub", "x")
	assert.ErrorIs(t, err, webfiles.ErrIO)

	_, err = e.Read(ctx, sub)
	assert.ErrorIs(t, err, webfiles.ErrIO)

	err = e.Update(ctx, sub, "x")
	assert.ErrorIs(t, err, webfiles.ErrIO)
	assert.ErrorIs(t, err, ErrIsDirectory)

	err = e.Delete(ctx, sub, "sub")
	assert.ErrorIs(t, err, webfiles.ErrIO)
	assert.DirExists(t, sub, "delete must never remove a directory")

	pub.AssertNotCalled(t, "Publish", mock.Anything)
}

// gateFs blocks OpenFile until release is closed.
type gateFs struct {
	afero.Fs
	release chan struct{}
}

func (g *gateFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	<-g.release
	return g.Fs.OpenFile(name, flag, perm)
}

func TestExecutor_CancelledCallerDoesNotAbortIO(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll(base, 0o755))
	gate := &gateFs{Fs: mem, release: make(chan struct{})}

	published := make(chan webfiles.Event, 1)
	pub := &mocks.MockPublisher{}
	pub.On("Publish", mock.Anything).Run(func(args mock.Arguments) {
		published <- args.Get(0).(webfiles.Event)
	}).Return()
	e := NewExecutor(gate, pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Create(ctx, base+"/slow.txt", "slow.txt", "late")
	assert.ErrorIs(t, err, context.Canceled)

	close(gate.release)
	select {
	case ev := <-published:
		assert.Equal(t, webfiles.FileCreated, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight create did not complete after caller cancelled")
	}
	data, err := afero.ReadFile(mem, base+"/slow.txt")
	require.NoError(t, err)
	assert.Equal(t, "late", string(data))
}

func TestExecutor_ConcurrentDistinctFiles(t *testing.T) {
	t.Parallel()

	e, _ := newMemExecutor(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			path := fmt.Sprintf("%s/f%d.txt", base, i)
			assert.NoError(t, e.Create(ctx, path, path, fmt.Sprint(i)))
		})
	}
	wg.Wait()

	for i := range 50 {
		got, err := e.Read(ctx, fmt.Sprintf("%s/f%d.txt", base, i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(i), got)
	}
}
