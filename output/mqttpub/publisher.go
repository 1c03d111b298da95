package mqttpub

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/output"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Publisher MQTT位姿发布
// 功能：位姿帧发布到<topic>/poses，事件状态帧发布到<topic>/events
type Publisher struct {
	client paho.Client
	topic  string
	qos    byte
}

// New 根据配置创建发布者，不连接
func New(c config.MQTTOutput) *Publisher {
	id := c.ClientID
	if id == "" {
		id = "scenario-player-" + uuid.NewString()[:8]
	}
	opts := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)
	return NewWithClient(paho.NewClient(opts), c.Topic, c.QoS)
}

// NewWithClient 使用已有的客户端创建发布者
func NewWithClient(client paho.Client, topic string, qos byte) *Publisher {
	return &Publisher{client: client, topic: topic, qos: qos}
}

// Connect 连接到broker
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect timeout after %v", connectTimeout)
	}
	return token.Error()
}

// PosesTopic 位姿主题
func (p *Publisher) PosesTopic() string {
	return p.topic + "/poses"
}

// EventsTopic 事件状态主题
func (p *Publisher) EventsTopic() string {
	return p.topic + "/events"
}

func (p *Publisher) send(topic string, f output.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, p.qos, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timeout", topic)
	}
	return token.Error()
}

// Publish 发布位姿
func (p *Publisher) Publish(t float64, poses []entity.ActorPose) error {
	return p.send(p.PosesTopic(), output.PoseFrame(t, poses))
}

// ObserveEvent 发布事件状态变化，签名满足event.Observer
func (p *Publisher) ObserveEvent(ev *event.Event, from, to event.Status, now float64) {
	if err := p.send(p.EventsTopic(), output.EventFrame(ev, from, to, now)); err != nil {
		log.Warnf("publish %v: %v", ev, err)
	}
}

// Close 断开连接
func (p *Publisher) Close() {
	p.client.Disconnect(1000)
}
