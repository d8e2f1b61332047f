package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/otpkeeper/internal/client/store"
	"github.com/dmitrijs2005/otpkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

const testSeed = "JBSWY3DPEHPK3PXP"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func seqIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func testKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenDir(context.Background(), t.TempDir(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func setSetting(ctx context.Context, st *store.Store, key, value string) error {
	return st.Do(ctx, func(ctx context.Context, r store.Repos) error {
		return r.Settings.Set(ctx, key, value)
	})
}
