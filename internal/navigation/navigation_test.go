package navigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestNavigator() (*Navigator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(clock.now), clock
}

func TestNavigate_StartsOnForm(t *testing.T) {
	n, _ := newTestNavigator()
	assert.Equal(t, ViewForm, n.View())
}

func TestNavigate_SevenQuickTapsOpenSettings(t *testing.T) {
	n, clock := newTestNavigator()

	for i := 1; i < UnlockTaps; i++ {
		require.Equal(t, ViewForm, n.Navigate(ViewForm), "tap %d", i)
		clock.advance(time.Second)
	}
	assert.Equal(t, ViewSettings, n.Navigate(ViewForm))

	// counter restarts after unlocking
	assert.Equal(t, ViewForm, n.Navigate(ViewForm))
}

func TestNavigate_SlowTapResetsSequence(t *testing.T) {
	n, clock := newTestNavigator()

	for i := 0; i < UnlockTaps-1; i++ {
		n.Navigate(ViewForm)
		clock.advance(500 * time.Millisecond)
	}
	clock.advance(TapWindow)
	assert.Equal(t, ViewForm, n.Navigate(ViewForm))

	for i := 0; i < UnlockTaps-2; i++ {
		clock.advance(100 * time.Millisecond)
		assert.Equal(t, ViewForm, n.Navigate(ViewForm))
	}
	clock.advance(100 * time.Millisecond)
	assert.Equal(t, ViewSettings, n.Navigate(ViewForm))
}

func TestNavigate_TapExactlyAtWindowStillCounts(t *testing.T) {
	n, clock := newTestNavigator()
	for i := 0; i < UnlockTaps-1; i++ {
		n.Navigate(ViewForm)
		clock.advance(TapWindow)
	}
	assert.Equal(t, ViewSettings, n.Navigate(ViewForm))
}

func TestNavigate_OtherViewResetsSequence(t *testing.T) {
	n, _ := newTestNavigator()

	for i := 0; i < UnlockTaps-1; i++ {
		n.Navigate(ViewForm)
	}
	assert.Equal(t, ViewList, n.Navigate(ViewList))
	assert.Equal(t, ViewForm, n.Navigate(ViewForm))
}

func TestParseView(t *testing.T) {
	v, err := ParseView("list")
	require.NoError(t, err)
	assert.Equal(t, ViewList, v)

	_, err = ParseView("admin")
	assert.Error(t, err)
}
