package clock

import (
	"errors"
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

// ErrNegativeSpeed 播放倍速不能为负
var ErrNegativeSpeed = errors.New("playback speed must not be negative")

// 网格对齐的容差
const gridEpsilon = 1e-9

// Clock 回放时钟
// 功能：维护当前仿真时间与播放倍速，提供固定子步长网格
// 说明：触发条件只在网格点上求值，因此连续播放与跳转重放得到相同结果
type Clock struct {
	DT float64 // 固定子步长（秒）
	T  float64 // 当前时间（秒）

	speed float64 // 播放倍速，0表示暂停
}

// New 根据配置创建时钟
// 参数：stepConfig-子步长配置，speed-初始播放倍速
func New(stepConfig config.ControlStep, speed float64) *Clock {
	c := &Clock{DT: stepConfig.Interval, speed: max(speed, 0)}
	c.Init()
	return c
}

// Init 回到0时刻
func (c *Clock) Init() {
	c.T = 0
}

// Speed 播放倍速
func (c *Clock) Speed() float64 {
	return c.speed
}

// SetSpeed 设置播放倍速
// 说明：0为暂停，负值返回ErrNegativeSpeed且不改变当前倍速
func (c *Clock) SetSpeed(speed float64) error {
	if speed < 0 || math.IsNaN(speed) {
		return ErrNegativeSpeed
	}
	c.speed = speed
	return nil
}

// Target 经过真实时间realDt后应到达的仿真时间
func (c *Clock) Target(realDt float64) float64 {
	return c.T + max(realDt, 0)*c.speed
}

// NextGrid 严格大于t的第一个网格点
func (c *Clock) NextGrid(t float64) float64 {
	k := math.Floor(t/c.DT + gridEpsilon)
	return (k + 1) * c.DT
}

// String 当前时间格式化为 HH:MM:SS.ss
func (c *Clock) String() string {
	h, m, s := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
