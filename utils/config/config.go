package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v2"
)

// 默认值
const (
	DefaultStepInterval     = 0.05
	DefaultSnapshotInterval = 10.0
	DefaultResolution       = 1.0
	DefaultLaneWidth        = 3.5
	DefaultPlaybackSpeed    = 1.0
	DefaultCacheSize        = 1024
	DefaultJournalTable     = "event_journal"
	DefaultWebsocketPath    = "/ws"
	DefaultMQTTTopic        = "scenario-player"
)

// RuntimeConfig 运行时配置
// 功能：存储补全默认值之后的配置
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：补全未设置的控制参数
// 参数：config-原始配置对象
// 返回：运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	c := &config.Control
	if c.Step.Interval <= 0 {
		c.Step.Interval = DefaultStepInterval
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = DefaultSnapshotInterval
	}
	if c.Resolution <= 0 {
		c.Resolution = DefaultResolution
	}
	if c.LaneWidth <= 0 {
		c.LaneWidth = DefaultLaneWidth
	}
	if c.Interpolation == "" {
		c.Interpolation = InterpolationLinear
	}
	if c.PlaybackSpeed == 0 {
		c.PlaybackSpeed = DefaultPlaybackSpeed
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if p := config.Output.Postgres; p != nil && p.Table == "" {
		p.Table = DefaultJournalTable
	}
	if w := config.Output.Websocket; w != nil && w.Path == "" {
		w.Path = DefaultWebsocketPath
	}
	if m := config.Output.MQTT; m != nil && m.Topic == "" {
		m.Topic = DefaultMQTTTopic
	}
	return &RuntimeConfig{
		All: config,
		C:   config.Control,
	}
}

// Load 严格解析YAML配置并校验
// 说明：未知字段视为错误
func Load(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate 检查配置取值
func (c Config) Validate() error {
	switch c.Control.Interpolation {
	case "", InterpolationLinear, InterpolationSpline:
	default:
		return fmt.Errorf("control.interpolation must be %s or %s, got %q",
			InterpolationLinear, InterpolationSpline, c.Control.Interpolation)
	}
	if c.Control.PlaybackSpeed < 0 {
		return errors.New("control.playback_speed must not be negative")
	}
	for name, p := range map[string]InputPath{"road": c.Input.Road, "scenario": c.Input.Scenario} {
		if p.File == "" && (p.DB == "" || p.Col == "") {
			return fmt.Errorf("input.%s needs file or db+col", name)
		}
		if p.File == "" && c.Input.URI == "" {
			return fmt.Errorf("input.%s is read from MongoDB but input.uri is empty", name)
		}
	}
	return nil
}
