package vehicle

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// longitudinal 纵向运动段
// 功能：从T0时刻、里程D0开始，速度在Duration内由V0缓动到V1，之后保持V1
// 说明：Duration<=0表示匀速V1；里程由缓动曲线的解析积分给出，与采样时刻无关
type longitudinal struct {
	T0, D0   float64
	V0, V1   float64
	Duration float64
	Event    *event.Event // 产生该过渡的事件
}

// active 过渡是否仍在进行
func (l longitudinal) active(t float64) bool {
	return l.Duration > 0 && t < l.T0+l.Duration
}

func (l longitudinal) speed(t float64) float64 {
	if !l.active(t) {
		return l.V1
	}
	p := lo.Clamp((t-l.T0)/l.Duration, 0, 1)
	return l.V0 + (l.V1-l.V0)*mathutil.EaseInOutCubic(p)
}

// distance t时刻的里程
// 算法说明：
// 1. 过渡中：D0 + V0·dt + (V1-V0)·Duration·∫ease
// 2. 过渡后：过渡段平均速度为(V0+V1)/2，之后按V1匀速
func (l longitudinal) distance(t float64) float64 {
	dt := max(t-l.T0, 0)
	if l.Duration <= 0 {
		return l.D0 + l.V1*dt
	}
	if dt >= l.Duration {
		return l.D0 + (l.V0+l.V1)/2*l.Duration + l.V1*(dt-l.Duration)
	}
	p := dt / l.Duration
	return l.D0 + l.V0*dt + (l.V1-l.V0)*l.Duration*mathutil.EaseInOutCubicIntegral(p)
}

// settle 过渡结束后换成等价的匀速段
func (l longitudinal) settle(t float64) longitudinal {
	if l.Duration <= 0 || l.active(t) {
		return l
	}
	end := l.T0 + l.Duration
	return longitudinal{T0: end, D0: l.distance(end), V0: l.V1, V1: l.V1}
}

// lateral 横向偏移段，含义与longitudinal相同
type lateral struct {
	T0       float64
	From, To float64
	Duration float64
	Event    *event.Event
}

func (l lateral) active(t float64) bool {
	return l.Duration > 0 && t < l.T0+l.Duration
}

func (l lateral) offset(t float64) float64 {
	if !l.active(t) {
		return l.To
	}
	p := lo.Clamp((t-l.T0)/l.Duration, 0, 1)
	return l.From + (l.To-l.From)*mathutil.EaseInOutCubic(p)
}

func (l lateral) settle(t float64) lateral {
	if l.Duration <= 0 || l.active(t) {
		return l
	}
	return lateral{T0: l.T0 + l.Duration, From: l.To, To: l.To}
}
