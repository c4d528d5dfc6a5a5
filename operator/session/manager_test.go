package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
)

// fakeDriver counts lifecycle calls and lets tests flip liveness.
type fakeDriver struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	alive       bool
	connectErr  error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{alive: true}
}

func (f *fakeDriver) Connect(ctx context.Context, serial string) (*definitions.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.connects++
	if serial == "" {
		serial = "emulator-5554"
	}
	return &definitions.Handle{Serial: serial, ConnectedAt: time.Now()}, nil
}

func (f *fakeDriver) Alive(ctx context.Context, h *definitions.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeDriver) Disconnect(ctx context.Context, h *definitions.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeDriver) setAlive(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = v
}

func (f *fakeDriver) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.disconnects
}

func (f *fakeDriver) ListDevices(ctx context.Context) ([]definitions.DeviceInfo, error) {
	return nil, nil
}
func (f *fakeDriver) DeviceInfo(ctx context.Context, h *definitions.Handle) (*definitions.DeviceInfo, error) {
	return &definitions.DeviceInfo{Serial: h.Serial}, nil
}
func (f *fakeDriver) ForegroundApp(ctx context.Context, h *definitions.Handle) (*definitions.AppInfo, error) {
	return &definitions.AppInfo{}, nil
}
func (f *fakeDriver) InstalledPackages(ctx context.Context, h *definitions.Handle) ([]string, error) {
	return nil, nil
}
func (f *fakeDriver) ScreenOn(ctx context.Context, h *definitions.Handle) (bool, error) {
	return true, nil
}
func (f *fakeDriver) Locked(ctx context.Context, h *definitions.Handle) (bool, error) {
	return false, nil
}
func (f *fakeDriver) DumpHierarchy(ctx context.Context, h *definitions.Handle, compressed bool) (string, error) {
	return "<hierarchy/>", nil
}
func (f *fakeDriver) ReadToast(ctx context.Context, h *definitions.Handle) (string, error) {
	return "", nil
}
func (f *fakeDriver) PressKey(ctx context.Context, h *definitions.Handle, key string) error {
	return nil
}
func (f *fakeDriver) Tap(ctx context.Context, h *definitions.Handle, x, y int) error { return nil }
func (f *fakeDriver) Swipe(ctx context.Context, h *definitions.Handle, x1, y1, x2, y2 int, d time.Duration) error {
	return nil
}
func (f *fakeDriver) InputText(ctx context.Context, h *definitions.Handle, text string, clear bool) error {
	return nil
}
func (f *fakeDriver) StartApp(ctx context.Context, h *definitions.Handle, pkg string) error {
	return nil
}
func (f *fakeDriver) StopApp(ctx context.Context, h *definitions.Handle, pkg string) error {
	return nil
}
func (f *fakeDriver) StopAllApps(ctx context.Context, h *definitions.Handle) error { return nil }
func (f *fakeDriver) ClearAppData(ctx context.Context, h *definitions.Handle, pkg string) error {
	return nil
}
func (f *fakeDriver) SetScreen(ctx context.Context, h *definitions.Handle, on bool) error {
	return nil
}
func (f *fakeDriver) UnlockGesture(ctx context.Context, h *definitions.Handle) error { return nil }
func (f *fakeDriver) Screenshot(ctx context.Context, h *definitions.Handle, path string) (string, error) {
	return path, nil
}

func TestAcquireConnectsOnce(t *testing.T) {
	driver := newFakeDriver()
	m := NewManager(driver, "")
	ctx := context.Background()

	h1, err := m.Acquire(ctx)
	require.NoError(t, err)

	h2, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	connects, _ := driver.counts()
	assert.Equal(t, 1, connects)
}

func TestAcquireReconnectsStaleHandleExactlyOnce(t *testing.T) {
	driver := newFakeDriver()
	m := NewManager(driver, "")
	ctx := context.Background()

	h1, err := m.Acquire(ctx)
	require.NoError(t, err)

	driver.setAlive(false)
	// One disconnect, one reconnect, no loop.
	h2, err := m.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, h1, h2)

	connects, disconnects := driver.counts()
	assert.Equal(t, 2, connects)
	assert.Equal(t, 1, disconnects)
}

func TestAcquireConnectFailureIsNoDevice(t *testing.T) {
	driver := newFakeDriver()
	driver.connectErr = errors.New("no devices/emulators found")
	m := NewManager(driver, "")

	_, err := m.Acquire(context.Background())
	require.Error(t, err)
	kind, ok := faults.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, faults.NoDevice, kind)
	assert.Nil(t, m.Cached())
}

func TestConcurrentAcquireSharesOneHandle(t *testing.T) {
	driver := newFakeDriver()
	m := NewManager(driver, "")

	const n = 50
	handles := make([]*definitions.Handle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := m.Acquire(context.Background())
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, handles[0], handles[i])
	}
	connects, _ := driver.counts()
	assert.Equal(t, 1, connects)
}

func TestWithDeviceSerializesCommands(t *testing.T) {
	driver := newFakeDriver()
	m := NewManager(driver, "")

	var inFlight atomic.Int32
	var overlapped atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithDevice(context.Background(), func(h *definitions.Handle) error {
				if inFlight.Add(1) > 1 {
					overlapped.Store(true)
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlapped.Load(), "device commands must not interleave")
}

func TestCloseIdempotent(t *testing.T) {
	driver := newFakeDriver()
	m := NewManager(driver, "")
	ctx := context.Background()

	_, err := m.Acquire(ctx)
	require.NoError(t, err)

	m.Close(ctx)
	m.Close(ctx)

	_, disconnects := driver.counts()
	assert.Equal(t, 1, disconnects)
	assert.Nil(t, m.Cached())
}
