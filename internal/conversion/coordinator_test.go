package conversion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(i, w, h int) PageImage {
	return PageImage{Index: i, Data: []byte{byte(i)}, Width: w, Height: h, MimeType: "image/jpeg"}
}

func TestCoordinator_OutOfOrderArrival(t *testing.T) {
	var fired int32
	var got Result
	c := New(func(r Result) {
		atomic.AddInt32(&fired, 1)
		got = r
	}, nil)

	require.NoError(t, c.Loaded(3))
	assert.Equal(t, Collecting, c.State())

	require.NoError(t, c.Arrive(page(1, 600, 800)))
	require.NoError(t, c.Arrive(page(0, 600, 800)))
	assert.Equal(t, Collecting, c.State())
	require.NoError(t, c.Arrive(page(2, 600, 800)))

	assert.Equal(t, Complete, c.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
	require.Len(t, got.Pages, 3)
	for i, p := range got.Pages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, []byte{byte(i)}, p.Data)
	}
	assert.Equal(t, Portrait, got.Orientation)
}

func TestCoordinator_DuplicateArrivalDoesNotDoubleFire(t *testing.T) {
	var fired int32
	c := New(func(Result) { atomic.AddInt32(&fired, 1) }, nil)
	require.NoError(t, c.Loaded(2))

	require.NoError(t, c.Arrive(page(0, 10, 20)))
	require.NoError(t, c.Arrive(page(0, 10, 20)))

	collected, expected := c.Progress()
	assert.Equal(t, 1, collected)
	assert.Equal(t, 2, expected)
	assert.Equal(t, Collecting, c.State())

	require.NoError(t, c.Arrive(page(1, 10, 20)))
	require.NoError(t, c.Arrive(page(1, 10, 20)))

	res, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Pages, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestCoordinator_OrientationFrozenFromFirstPage(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Loaded(3))

	require.NoError(t, c.Arrive(page(2, 500, 900)))
	require.NoError(t, c.Arrive(page(0, 900, 500)))
	// re-render of page 0 with other dimensions must not flip orientation
	require.NoError(t, c.Arrive(page(0, 500, 900)))
	require.NoError(t, c.Arrive(page(1, 500, 900)))

	res, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Landscape, res.Orientation)
}

func TestCoordinator_SinglePageLandscape(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Loaded(1))
	require.NoError(t, c.Arrive(page(0, 1200, 800)))

	res, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Landscape, res.Orientation)
}

func TestCoordinator_ZeroPagesCompletesImmediately(t *testing.T) {
	var fired int32
	c := New(func(Result) { atomic.AddInt32(&fired, 1) }, nil)
	require.NoError(t, c.Loaded(0))

	res, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
	assert.EqualValues(t, 1, fired)
}

func TestCoordinator_ArriveBeforeLoaded(t *testing.T) {
	c := New(nil, nil)
	err := c.Arrive(page(0, 1, 1))
	assert.ErrorIs(t, err, ErrNotLoaded)

	collected, expected := c.Progress()
	assert.Equal(t, 0, collected)
	assert.Equal(t, -1, expected)
}

func TestCoordinator_LoadedTwice(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Loaded(1))
	assert.ErrorIs(t, c.Loaded(1), ErrAlreadyLoaded)
}

func TestCoordinator_OutOfRange(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Loaded(2))
	assert.ErrorIs(t, c.Arrive(page(2, 1, 1)), ErrPageOutOfRange)
	assert.ErrorIs(t, c.Arrive(page(-1, 1, 1)), ErrPageOutOfRange)
}

func TestCoordinator_FailIsTerminal(t *testing.T) {
	var failed, completed int32
	c := New(
		func(Result) { atomic.AddInt32(&completed, 1) },
		func(error) { atomic.AddInt32(&failed, 1) },
	)
	require.NoError(t, c.Loaded(2))
	require.NoError(t, c.Arrive(page(0, 1, 1)))

	boom := errors.New("page 2 exploded")
	c.Fail(boom)
	c.Fail(errors.New("second failure"))
	require.NoError(t, c.Arrive(page(1, 1, 1)))

	_, err := c.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, c.State())
	assert.EqualValues(t, 1, failed)
	assert.EqualValues(t, 0, completed)
}

func TestCoordinator_FailAfterCompleteIgnored(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Loaded(1))
	require.NoError(t, c.Arrive(page(0, 1, 1)))
	c.Fail(errors.New("late"))

	_, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Complete, c.State())
}

func TestCoordinator_WaitHonoursContext(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.Loaded(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCoordinator_ConcurrentArrivals(t *testing.T) {
	const n = 64
	var fired int32
	c := New(func(Result) { atomic.AddInt32(&fired, 1) }, nil)
	require.NoError(t, c.Loaded(n))

	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		for r := 0; r < 2; r++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = c.Arrive(page(i, 100, 200))
			}(i)
		}
	}
	wg.Wait()

	res, err := c.Wait(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Pages, n)
	for i, p := range res.Pages {
		assert.Equal(t, i, p.Index)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestOrientationOf(t *testing.T) {
	assert.Equal(t, Landscape, OrientationOf(2, 1))
	assert.Equal(t, Portrait, OrientationOf(1, 2))
	assert.Equal(t, Portrait, OrientationOf(5, 5))
}
