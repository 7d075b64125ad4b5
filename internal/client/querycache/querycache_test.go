package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spaceList struct {
	Names []string `json:"names"`
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "org_member_spaces:acme", OrgMemberSpaces("acme").String())
	assert.Equal(t, "space_settings:acme:eng", SpaceSettings("acme", "eng").String())
	assert.Equal(t, "space_statuses:acme:eng", SpaceStatuses("acme", "eng").String())
	assert.NotEqual(t, SpaceSettings("acme", "eng"), SpaceStatuses("acme", "eng"))
}

func TestLoad_CachesUntilInvalidated(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()
	key := OrgMemberSpaces("acme")

	var calls int32
	fetch := func(ctx context.Context) (*spaceList, error) {
		atomic.AddInt32(&calls, 1)
		return &spaceList{Names: []string{"eng"}}, nil
	}

	first, err := Load(ctx, c, key, fetch)
	require.NoError(t, err)
	second, err := Load(ctx, c, key, fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	c.Invalidate(key)
	_, err = Load(ctx, c, key, fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Invalidations)
}

func TestLoad_TTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(Config{TTL: time.Minute, Clock: clock})
	key := SpaceSettings("acme", "eng")

	require.NoError(t, c.Set(key, spaceList{Names: []string{"a"}}))

	var got spaceList
	assert.True(t, c.Get(key, &got))

	clock.Advance(2 * time.Minute)
	assert.False(t, c.Get(key, &got))
}

func TestLoad_ErrorsAreNotCached(t *testing.T) {
	c := New(Config{})
	key := SpaceStatuses("acme", "eng")
	boom := errors.New("boom")

	_, err := Load(context.Background(), c, key, func(ctx context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Load(context.Background(), c, key, func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestLoad_CollapsesConcurrentFetches(t *testing.T) {
	c := New(Config{})
	key := OrgMemberSpaces("acme")

	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 3, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Load(context.Background(), c, key, fetch)
			assert.NoError(t, err)
			assert.Equal(t, 3, v)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestLoad_InvalidateDuringFetchDropsResult(t *testing.T) {
	c := New(Config{})
	key := OrgMemberSpaces("acme")

	_, err := Load(context.Background(), c, key, func(ctx context.Context) (string, error) {
		c.Invalidate(key)
		return "stale", nil
	})
	require.NoError(t, err)

	var got string
	assert.False(t, c.Get(key, &got), "result loaded across an invalidation must not be cached")
}

func TestSetIfCurrent(t *testing.T) {
	c := New(Config{})
	key := SpaceSettings("acme", "eng")
	gen := c.generation(key.String())

	c.Invalidate(key)
	stored, err := c.setIfCurrent(key, gen, "stale")
	require.NoError(t, err)
	assert.False(t, stored)

	var got string
	assert.False(t, c.Get(key, &got))

	stored, err = c.setIfCurrent(key, c.generation(key.String()), "fresh")
	require.NoError(t, err)
	assert.True(t, stored)
	require.True(t, c.Get(key, &got))
	assert.Equal(t, "fresh", got)
}
