package event

import (
	"fmt"
	"math"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
)

// equalTo规则的容差
const equalTolerance = 0.1

// Rule 比较规则
type Rule int

const (
	RuleEqualTo Rule = iota
	RuleGreaterThan
	RuleLessThan
	RuleGreaterOrEqual
	RuleLessOrEqual
	RuleNotEqualTo
)

// ParseRule 解析比较规则，大小写与下划线写法等价
func ParseRule(s string) (Rule, error) {
	switch strcase.ToLowerCamel(strings.TrimSpace(s)) {
	case "equalTo":
		return RuleEqualTo, nil
	case "greaterThan":
		return RuleGreaterThan, nil
	case "lessThan":
		return RuleLessThan, nil
	case "greaterOrEqual", "greaterEqualThan":
		return RuleGreaterOrEqual, nil
	case "lessOrEqual", "lessEqualThan":
		return RuleLessOrEqual, nil
	case "notEqualTo":
		return RuleNotEqualTo, nil
	default:
		return 0, fmt.Errorf("unknown rule %q", s)
	}
}

// Compare 按规则比较v与threshold
func (r Rule) Compare(v, threshold float64) bool {
	switch r {
	case RuleEqualTo:
		return math.Abs(v-threshold) <= equalTolerance
	case RuleGreaterThan:
		return v > threshold
	case RuleLessThan:
		return v < threshold
	case RuleGreaterOrEqual:
		return v >= threshold
	case RuleLessOrEqual:
		return v <= threshold
	case RuleNotEqualTo:
		return math.Abs(v-threshold) > equalTolerance
	default:
		return false
	}
}

// Actors 触发条件读取的车辆集合
type Actors interface {
	GetOrError(id string) (entity.IVehicle, error)
}

// Condition 触发条件，封闭集合：ValueCondition/SpeedCondition/DistanceCondition
type Condition interface {
	Evaluate(now float64, actors Actors) bool
	isCondition()
}

// ValueCondition 仿真时间条件：比较 (now - Delay) 与 Value
type ValueCondition struct {
	Value float64
	Rule  Rule
	Delay float64
}

// SpeedCondition 实体速度条件：逐个比较触发实体的速度，按All聚合（true为全部，false为任意）
// 说明：未知实体视为不满足
type SpeedCondition struct {
	Entities []string
	All      bool
	Value    float64
	Rule     Rule
}

// DistanceCondition 实体距离条件
// 说明：不做几何距离计算，总是满足
type DistanceCondition struct {
	Entities []string
	Value    float64
	Rule     Rule
}

func (ValueCondition) isCondition()    {}
func (SpeedCondition) isCondition()    {}
func (DistanceCondition) isCondition() {}

// Evaluate 仿真时间比较
func (c *ValueCondition) Evaluate(now float64, _ Actors) bool {
	return c.Rule.Compare(now-c.Delay, c.Value)
}

// Evaluate 速度比较并按any/all聚合
func (c *SpeedCondition) Evaluate(_ float64, actors Actors) bool {
	if len(c.Entities) == 0 {
		return false
	}
	for _, id := range c.Entities {
		ok := false
		if v, err := actors.GetOrError(id); err == nil {
			ok = c.Rule.Compare(v.Speed(), c.Value)
		}
		if ok && !c.All {
			return true
		}
		if !ok && c.All {
			return false
		}
	}
	return c.All
}

// Evaluate 总是满足
func (c *DistanceCondition) Evaluate(_ float64, _ Actors) bool {
	log.Debugf("distance condition on %v is not evaluated geometrically, treated as true", c.Entities)
	return true
}

// ConditionGroup 条件组，组内条件为或
type ConditionGroup struct {
	Conditions []Condition
}

// Trigger 触发器，条件组之间为与
type Trigger struct {
	Groups []ConditionGroup
}

// Evaluate 与-或求值
// 说明：空触发器与空条件组都不满足
func (t *Trigger) Evaluate(now float64, actors Actors) bool {
	if t == nil || len(t.Groups) == 0 {
		return false
	}
	for _, g := range t.Groups {
		ok := false
		for _, c := range g.Conditions {
			if c.Evaluate(now, actors) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// HasEntityConditions 是否包含仿真时间以外的条件
func (t *Trigger) HasEntityConditions() bool {
	if t == nil {
		return false
	}
	for _, g := range t.Groups {
		for _, c := range g.Conditions {
			if _, ok := c.(*ValueCondition); !ok {
				return true
			}
		}
	}
	return false
}

// ShouldTrigger 事件是否应当激活
// 功能：由仿真时间门控的事件在 now >= Time 时激活；任何事件的触发器为真时激活
func ShouldTrigger(ev *Event, now float64, actors Actors) bool {
	if ev.Timed && now >= ev.Time {
		return true
	}
	return ev.Trigger.Evaluate(now, actors)
}
