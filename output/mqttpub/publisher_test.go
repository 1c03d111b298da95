package mqttpub_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/output"
	"github.com/tsinghua-fib-lab/scenario-player/output/mqttpub"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	paho.Client
	sent []message
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.sent = append(c.sent, message{topic: topic, qos: qos, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

func TestPublish(t *testing.T) {
	c := &fakeClient{}
	p := mqttpub.NewWithClient(c, "player", 1)
	require.NoError(t, p.Publish(3, []entity.ActorPose{{ID: "ego", X: 1}, {ID: "npc", X: 2}}))
	require.Len(t, c.sent, 1)
	assert.Equal(t, "player/poses", c.sent[0].topic)
	assert.Equal(t, byte(1), c.sent[0].qos)
	var f output.Frame
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &f))
	assert.Equal(t, 3.0, f.Time)
	assert.Len(t, f.Poses, 2)

	p.ObserveEvent(&event.Event{ID: "e#ego", Kind: event.KindLaneChange}, event.StatusActive, event.StatusCompleted, 4)
	require.Len(t, c.sent, 2)
	assert.Equal(t, "player/events", c.sent[1].topic)
	require.NoError(t, json.Unmarshal(c.sent[1].payload, &f))
	assert.Equal(t, "completed", f.Event.To)
}

func TestPublishError(t *testing.T) {
	c := &fakeClient{err: errors.New("broker gone")}
	p := mqttpub.NewWithClient(c, "player", 0)
	assert.EqualError(t, p.Publish(0, nil), "broker gone")
}
