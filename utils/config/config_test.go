package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

const sample = `
input:
  uri: mongodb://localhost:27017
  road:
    file: data/road.xodr
  scenario:
    db: scenarios
    col: xosc
    name: cut-in
control:
  step:
    interval: 0.1
  interpolation: spline
output:
  listen: ":51102"
  mqtt:
    broker: tcp://localhost:1883
    topic: player/poses
  postgres:
    dsn: postgres://localhost/player
`

func TestLoad(t *testing.T) {
	c, err := config.Load([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "data/road.xodr", c.Input.Road.File)
	assert.Equal(t, "xosc", c.Input.Scenario.GetColl())
	assert.Equal(t, "scenarios", c.Input.Scenario.GetDb())
	assert.Equal(t, 0.1, c.Control.Step.Interval)
	require.NotNil(t, c.Output.MQTT)
	assert.Equal(t, "player/poses", c.Output.MQTT.Topic)
	assert.Nil(t, c.Output.Websocket)

	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, 0.1, rc.C.Step.Interval)
	assert.Equal(t, config.DefaultLaneWidth, rc.C.LaneWidth)
	assert.Equal(t, config.DefaultSnapshotInterval, rc.C.SnapshotInterval)
	assert.Equal(t, config.InterpolationSpline, rc.C.Interpolation)
	assert.Equal(t, config.DefaultJournalTable, rc.All.Output.Postgres.Table)
	assert.Equal(t, "player/poses", rc.All.Output.MQTT.Topic)
}

func TestOutputDefaults(t *testing.T) {
	c := config.Config{Output: config.Output{
		Websocket: &config.WebsocketOutput{},
		MQTT:      &config.MQTTOutput{Broker: "tcp://localhost:1883"},
	}}
	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, config.DefaultWebsocketPath, rc.All.Output.Websocket.Path)
	assert.Equal(t, config.DefaultMQTTTopic, rc.All.Output.MQTT.Topic)
	assert.Equal(t, config.DefaultPlaybackSpeed, rc.C.PlaybackSpeed)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := config.Load([]byte(sample + "\nextra: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := config.Load([]byte(sample))
	require.NoError(t, err)

	bad := c
	bad.Control.Interpolation = "cubic"
	assert.Error(t, bad.Validate())

	bad = c
	bad.Input.URI = ""
	assert.Error(t, bad.Validate())

	bad = c
	bad.Input.Road = config.InputPath{DB: "x"}
	assert.Error(t, bad.Validate())
}
