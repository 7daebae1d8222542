package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calendar-agent/internal/calendar/calendartest"
	"github.com/teemow/calendar-agent/internal/tools"
)

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	fake := calendartest.NewServer(t)
	sc, err := NewServerContext(context.Background(), Config{Calendar: fake.Client(t)})
	require.NoError(t, err)
	return sc
}

func TestNewServerContext_RequiresCalendar(t *testing.T) {
	_, err := NewServerContext(context.Background(), Config{})
	assert.Error(t, err)
}

func TestServerContext_Components(t *testing.T) {
	sc := newTestServerContext(t)

	assert.NotNil(t, sc.Calendar())
	assert.NotNil(t, sc.Search())
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.Provider())
	assert.Contains(t, sc.Registry().Names(), tools.SearchEventTool)
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t)
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown(context.Background()))
	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)

	// A second shutdown is a no-op.
	assert.NoError(t, sc.Shutdown(context.Background()))
}

func TestServerContext_WithProvider(t *testing.T) {
	fake := calendartest.NewServer(t)
	sc, err := NewServerContext(context.Background(), Config{
		Calendar: fake.Client(t),
		Provider: createDisabledProvider(t),
	})
	require.NoError(t, err)
	assert.NotNil(t, sc.Metrics())
	assert.NoError(t, sc.Shutdown(context.Background()))
}
