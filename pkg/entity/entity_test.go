package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktimer/ktimer-go/pkg/timer"
)

func TestSensorState(t *testing.T) {
	s := NewSensor("remaining")
	assert.Equal(t, "remaining", s.Name())
	assert.False(t, s.HasState())
	_, ok := s.Value()
	assert.False(t, ok)

	var got []float64
	s.Subscribe(func(v float64) { got = append(got, v) })
	s.Publish(12.5)
	s.Publish(3)

	assert.True(t, s.HasState())
	assert.Equal(t, 3.0, s.State())
	assert.Equal(t, []float64{12.5, 3}, got)
}

func TestTextAndBinarySensor(t *testing.T) {
	ts := NewTextSensor("state")
	bs := NewBinarySensor("running")

	var text string
	var flag bool
	ts.Subscribe(func(v string) { text = v })
	bs.Subscribe(func(v bool) { flag = v })

	ts.Publish("paused")
	bs.Publish(true)

	assert.Equal(t, "paused", text)
	assert.Equal(t, "paused", ts.State())
	assert.True(t, flag)
	assert.True(t, bs.State())
	assert.True(t, bs.HasState())
}

func TestSubscribeFromCallback(t *testing.T) {
	s := NewSensor("x")
	calls := 0
	s.Subscribe(func(float64) {
		calls++
		s.Subscribe(func(float64) { calls += 10 })
	})

	s.Publish(1)
	assert.Equal(t, 1, calls, "subscriber added during publish runs from the next publish")

	s.Publish(2)
	assert.Equal(t, 12, calls)
}

func TestEntitiesBind(t *testing.T) {
	cfg := timer.DefaultConfig("kitchen")
	cfg.InitialSetSeconds = 90
	engine := timer.NewEngine(cfg)
	ents := NewEntities("kitchen")

	ents.Bind(engine)
	assert.Equal(t, "stopped", ents.State.State())
	assert.Equal(t, 90.0, ents.Set.State())

	engine.Start(3)
	engine.Tick()
	assert.Equal(t, 2.0, ents.Remaining.State())
	assert.True(t, ents.Running.State())
	assert.False(t, ents.Paused.State())

	engine.Tick()
	engine.Tick()
	assert.Equal(t, "overdue", ents.State.State())
	assert.True(t, ents.Overdue.State())

	engine.Pause()
	assert.Equal(t, "paused", ents.State.State())
	assert.True(t, ents.Paused.State())
	assert.False(t, ents.Running.State())
}

func TestRemoteDrivesEngine(t *testing.T) {
	engine := timer.NewEngine(timer.DefaultConfig("kitchen"))
	remote := NewRemote("kitchen", engine, true, true)
	require.NotNil(t, remote.State)
	require.NotNil(t, remote.Remaining)

	remote.Remaining.Publish(120)
	assert.Equal(t, timer.StateRunning, engine.State())
	assert.Equal(t, 120, engine.Remaining())

	remote.State.Publish(timer.RemotePaused)
	assert.Equal(t, timer.StatePaused, engine.State())

	remote.State.Publish(timer.RemoteIdle)
	assert.Equal(t, timer.StateStopped, engine.State())
	assert.False(t, engine.Synced())
}

func TestRemotePartial(t *testing.T) {
	engine := timer.NewEngine(timer.DefaultConfig("kitchen"))
	remote := NewRemote("kitchen", engine, true, false)

	assert.NotNil(t, remote.State)
	assert.Nil(t, remote.Remaining)
	assert.True(t, engine.RemoteAvailable())

	none := timer.NewEngine(timer.DefaultConfig("other"))
	NewRemote("other", none, false, false)
	assert.False(t, none.RemoteAvailable())
}
