package event

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/document"
	"github.com/tsinghua-fib-lab/scenario-player/document/xosc"
)

const (
	dimensionTime     = "time"
	dimensionRate     = "rate"
	dimensionDistance = "distance"
	shapeStep         = "step"

	commandStart = "start"
	commandStop  = "stop"
)

var (
	errNoActors      = errors.New("maneuver group has no actors")
	errUnknownActor  = errors.New("unknown actor")
	errUnknownAction = errors.New("unsupported action")
)

// ParsePriority 解析事件优先级
// 说明：override与overwrite等价，空字符串为overwrite
func ParsePriority(s string) (Priority, error) {
	switch strcase.ToLowerCamel(strings.TrimSpace(s)) {
	case "", "overwrite", "override":
		return PriorityOverwrite, nil
	case "skip":
		return PrioritySkip, nil
	case "parallel":
		return PriorityParallel, nil
	default:
		return PriorityOverwrite, fmt.Errorf("unknown priority %q", s)
	}
}

// TimedPosition 轨迹顶点
type TimedPosition struct {
	Time     float64
	Position Position
	Speed    *float64 // 可选速度提示
}

// Placement 车辆的初始状态
type Placement struct {
	Actor      string
	Position   *Position       // nil表示原点
	Speed      float64         // 初始速度
	Trajectory []TimedPosition // 非空时车辆沿轨迹行驶
}

// Compile 把故事板编译为按时间排序的事件列表
// 功能：逐个展开 Story/Act/ManeuverGroup/Maneuver/Event/Action，组内每个执行者生成一个事件
// 参数：doc-场景文档
// 返回：事件列表（按Time稳定排序），被跳过元素的警告
// 算法说明：
// 1. 事件时间取事件自身触发器中的仿真时间条件，没有则取所在幕的开始触发器
// 2. 幕的开始触发器的条件组与事件触发器的条件组合并（组间为与）
// 3. 没有任何触发器的事件由仿真时间门控，时间为0
func Compile(doc *xosc.Document) ([]*Event, []error) {
	var (
		events []*Event
		errs   []error
	)
	known := lo.SliceToMap(doc.Entities, func(o xosc.ScenarioObject) (string, struct{}) {
		return o.Name, struct{}{}
	})
	for si, story := range doc.Storyboard.Stories {
		storyName := nameOr(story.Name, si)
		for ai, act := range story.Acts {
			actPath := storyName + "/" + nameOr(act.Name, ai)
			actTrigger, err := convertTrigger(act.StartTrigger)
			if err != nil {
				errs = append(errs, &document.ElementParseError{Element: "act", ID: actPath, Err: err})
				continue
			}
			for gi, group := range act.ManeuverGroups {
				groupPath := actPath + "/" + nameOr(group.Name, gi)
				actors := lo.Uniq(lo.FilterMap(group.Actors, func(r xosc.EntityRef, _ int) (string, bool) {
					id := strings.TrimSpace(r.EntityRef)
					return id, id != ""
				}))
				if len(actors) == 0 {
					errs = append(errs, &document.ElementParseError{Element: "maneuverGroup", ID: groupPath, Err: errNoActors})
					continue
				}
				for _, actor := range actors {
					if _, ok := known[actor]; !ok && len(known) > 0 {
						errs = append(errs, &document.ElementParseError{Element: "maneuverGroup", ID: groupPath, Err: fmt.Errorf("%w %q", errUnknownActor, actor)})
					}
				}
				actors = lo.Filter(actors, func(id string, _ int) bool {
					_, ok := known[id]
					return ok || len(known) == 0
				})
				for mi, maneuver := range group.Maneuvers {
					maneuverPath := groupPath + "/" + nameOr(maneuver.Name, mi)
					for ei, xev := range maneuver.Events {
						evs, evErrs := compileEvent(maneuverPath, ei, &xev, actTrigger, actors)
						errs = append(errs, evErrs...)
						for _, ev := range evs {
							ev.order = len(events)
							events = append(events, ev)
						}
					}
				}
			}
		}
	}
	slices.SortStableFunc(events, func(a, b *Event) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	for i, ev := range events {
		ev.order = i
	}
	return events, errs
}

func nameOr(name string, index int) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return strconv.Itoa(index)
}

// compileEvent 编译单个Event元素，每个动作与每个执行者的组合生成一个事件
func compileEvent(path string, index int, xev *xosc.Event, actTrigger *Trigger, actors []string) ([]*Event, []error) {
	name := strings.TrimSpace(xev.Name)
	if name == "" {
		// 未命名事件使用确定性的名字，保证多次加载ID一致
		name = uuid.NewSHA1(uuid.NameSpaceURL, []byte(path+"/"+strconv.Itoa(index))).String()
	}
	path = path + "/" + name
	priority, err := ParsePriority(xev.Priority)
	if err != nil {
		log.Warnf("event %s: %v, use %s", path, err, priority)
	}
	own, err := convertTrigger(xev.StartTrigger)
	if err != nil {
		return nil, []error{&document.ElementParseError{Element: "event", ID: path, Err: err}}
	}
	t, timed := eventTime(own, actTrigger)
	trigger := mergeTriggers(own, actTrigger)

	var (
		events []*Event
		errs   []error
	)
	for ai, action := range xev.Actions {
		actionPath := path
		if len(xev.Actions) > 1 {
			actionPath = path + ":" + nameOr(action.Name, ai)
		}
		kind, params, duration, err := convertAction(&action)
		if err != nil {
			errs = append(errs, &document.ElementParseError{Element: "action", ID: actionPath, Err: err})
			continue
		}
		for _, actor := range actors {
			events = append(events, &Event{
				ID:          actionPath + "#" + actor,
				Name:        name,
				Time:        t,
				Timed:       timed,
				TargetActor: actor,
				Kind:        kind,
				Priority:    priority,
				Params:      params,
				Trigger:     trigger,
				Duration:    duration,
				Status:      StatusPending,
			})
		}
	}
	return events, errs
}

// eventTime 事件激活时刻与是否由仿真时间门控
func eventTime(own, act *Trigger) (float64, bool) {
	if t, ok := simulationTime(own); ok {
		return t, true
	}
	actTime, actOK := simulationTime(act)
	if own == nil {
		// 只受幕触发器约束：幕没有实体条件时整体由时间门控
		if act == nil || !act.HasEntityConditions() {
			return actTime, true
		}
		return actTime, false
	}
	if actOK {
		return actTime, false
	}
	return 0, false
}

// simulationTime 触发器中第一个可确定激活时刻的仿真时间条件
func simulationTime(t *Trigger) (float64, bool) {
	if t == nil {
		return 0, false
	}
	for _, g := range t.Groups {
		for _, c := range g.Conditions {
			vc, ok := c.(*ValueCondition)
			if !ok {
				continue
			}
			switch vc.Rule {
			case RuleLessThan, RuleLessOrEqual, RuleNotEqualTo:
				continue
			}
			return vc.Value + vc.Delay, true
		}
	}
	return 0, false
}

func mergeTriggers(own, act *Trigger) *Trigger {
	switch {
	case own == nil && act == nil:
		return nil
	case own == nil:
		return act
	case act == nil:
		return own
	}
	groups := make([]ConditionGroup, 0, len(own.Groups)+len(act.Groups))
	groups = append(groups, own.Groups...)
	groups = append(groups, act.Groups...)
	return &Trigger{Groups: groups}
}

// convertTrigger 转换触发器，nil输入返回nil
func convertTrigger(xt *xosc.Trigger) (*Trigger, error) {
	if xt == nil {
		return nil, nil
	}
	t := &Trigger{}
	for _, xg := range xt.Groups {
		g := ConditionGroup{}
		for _, xc := range xg.Conditions {
			c, err := convertCondition(&xc)
			if err != nil {
				return nil, fmt.Errorf("condition %q: %w", xc.Name, err)
			}
			g.Conditions = append(g.Conditions, c)
		}
		t.Groups = append(t.Groups, g)
	}
	return t, nil
}

func convertCondition(xc *xosc.Condition) (Condition, error) {
	r := document.AttrReader{}
	delay := r.Float("delay", xc.Delay, 0)
	switch {
	case xc.ByValue != nil && xc.ByValue.SimulationTime != nil:
		rv := xc.ByValue.SimulationTime
		value := r.RequiredFloat("value", rv.Value)
		rule, err := ParseRule(rv.Rule)
		r.Fail(err)
		if r.Err() != nil {
			return nil, r.Err()
		}
		return &ValueCondition{Value: value, Rule: rule, Delay: delay}, nil
	case xc.ByEntity != nil:
		be := xc.ByEntity
		entities := lo.Map(be.TriggeringEntities.Entities, func(e xosc.EntityRef, _ int) string {
			return strings.TrimSpace(e.EntityRef)
		})
		all := strcase.ToLowerCamel(be.TriggeringEntities.Rule) == "all"
		var (
			rv         *xosc.RuleValue
			isDistance bool
		)
		switch {
		case be.Speed != nil:
			rv = be.Speed
		case be.Distance != nil:
			rv, isDistance = be.Distance, true
		case be.RelativeDistance != nil:
			rv, isDistance = be.RelativeDistance, true
		default:
			return nil, errors.New("unsupported entity condition")
		}
		value := r.RequiredFloat("value", rv.Value)
		rule, err := ParseRule(rv.Rule)
		r.Fail(err)
		if r.Err() != nil {
			return nil, r.Err()
		}
		if delay != 0 {
			log.Debugf("condition %q: delay on entity conditions is ignored", xc.Name)
		}
		if isDistance {
			return &DistanceCondition{Entities: entities, Value: value, Rule: rule}, nil
		}
		return &SpeedCondition{Entities: entities, All: all, Value: value, Rule: rule}, nil
	default:
		return nil, errors.New("unsupported condition")
	}
}

// convertDynamics 过渡动态转换为时长，rate与distance维度写入params由车辆计算时长
func convertDynamics(r *document.AttrReader, d *xosc.TransitionDynamics, params *Params) float64 {
	value := r.Float("value", d.Value, 0)
	if strcase.ToLowerCamel(d.Shape) == shapeStep {
		return 0
	}
	switch strcase.ToLowerCamel(d.Dimension) {
	case "", dimensionTime:
		return max(value, 0)
	case dimensionRate:
		params.Rate = max(value, 0)
	case dimensionDistance:
		params.Distance = max(value, 0)
	default:
		r.Fail(fmt.Errorf("unknown dynamicsDimension %q", d.Dimension))
	}
	return 0
}

// convertAction 把单个动作转换为事件类型、参数与过渡时长
func convertAction(a *xosc.Action) (Kind, Params, float64, error) {
	r := document.AttrReader{}
	params := Params{}
	switch {
	case a.UserDefinedAction != nil && a.UserDefinedAction.Command != nil:
		cmd := a.UserDefinedAction.Command
		params.Command = strings.TrimSpace(cmd.Type)
		params.Content = strings.TrimSpace(cmd.Content)
		switch strcase.ToLowerCamel(params.Command) {
		case commandStart:
			if v, err := strconv.ParseFloat(params.Content, 64); err == nil {
				params.TargetSpeed, params.HasSpeed = v, true
			}
			return KindVehicleStart, params, 0, nil
		case commandStop:
			return KindVehicleStop, params, 0, nil
		default:
			return KindCustom, params, 0, nil
		}
	case a.Private == nil:
		return "", params, 0, errUnknownAction
	}
	p := a.Private
	switch {
	case p.Longitudinal != nil && p.Longitudinal.Speed != nil:
		sa := p.Longitudinal.Speed
		duration := convertDynamics(&r, &sa.Dynamics, &params)
		switch {
		case sa.Absolute != nil:
			params.TargetSpeed = r.RequiredFloat("value", sa.Absolute.Value)
		case sa.Relative != nil:
			params.TargetSpeed = r.RequiredFloat("value", sa.Relative.Value)
			params.RelativeSpeed = true
			params.Reference = strings.TrimSpace(sa.Relative.EntityRef)
		default:
			r.Fail(errors.New("speed action has no target"))
		}
		if r.Err() != nil {
			return "", params, 0, r.Err()
		}
		kind := KindSpeedChange
		if !params.RelativeSpeed && params.TargetSpeed == 0 {
			if duration > 0 || params.Rate > 0 || params.Distance > 0 {
				kind = KindBrakeAction
			} else {
				kind = KindVehicleStop
			}
		}
		return kind, params, duration, nil
	case p.Lateral != nil && p.Lateral.LaneChange != nil:
		lc := p.Lateral.LaneChange
		duration := convertDynamics(&r, &lc.Dynamics, &params)
		switch {
		case lc.Absolute != nil:
			params.TargetLane = r.Int("value", lc.Absolute.Value, 0)
		case lc.Relative != nil:
			params.TargetLane = r.Int("value", lc.Relative.Value, 0)
			params.RelativeLane = true
		default:
			r.Fail(errors.New("lane change action has no target"))
		}
		if r.Err() != nil {
			return "", params, 0, r.Err()
		}
		return KindLaneChange, params, duration, nil
	case p.Teleport != nil:
		pos, err := ConvertPosition(&p.Teleport.Position)
		if err != nil {
			return "", params, 0, err
		}
		params.Position = pos
		return KindTeleport, params, 0, nil
	default:
		return "", params, 0, errUnknownAction
	}
}

// ConvertPosition 转换世界坐标或车道坐标
func ConvertPosition(xp *xosc.Position) (*Position, error) {
	r := document.AttrReader{}
	var pos *Position
	switch {
	case xp.World != nil:
		w := xp.World
		pos = &Position{
			World: true,
			X:     r.RequiredFloat("x", w.X),
			Y:     r.RequiredFloat("y", w.Y),
			Z:     r.Float("z", w.Z, 0),
			H:     r.Float("h", w.H, 0),
		}
	case xp.Lane != nil:
		l := xp.Lane
		pos = &Position{
			RoadID: r.RequiredString("roadId", l.RoadID),
			LaneID: r.Int("laneId", l.LaneID, 0),
			S:      r.RequiredFloat("s", l.S),
			Offset: r.Float("offset", l.Offset, 0),
		}
	default:
		return nil, errors.New("unsupported position")
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return pos, nil
}

// CompileInit 编译初始化动作
// 功能：为每个实体生成初始状态，未出现在Init中的实体停在原点
// 返回：按实体声明顺序排列的初始状态，被跳过动作的警告
func CompileInit(doc *xosc.Document) ([]Placement, []error) {
	var errs []error
	placements := make([]Placement, 0, len(doc.Entities))
	index := make(map[string]int, len(doc.Entities))
	for _, o := range doc.Entities {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			errs = append(errs, &document.ElementParseError{Element: "scenarioObject", Err: document.ErrMissingAttribute})
			continue
		}
		if _, ok := index[name]; ok {
			errs = append(errs, &document.ElementParseError{Element: "scenarioObject", ID: name, Err: errors.New("duplicate name")})
			continue
		}
		index[name] = len(placements)
		placements = append(placements, Placement{Actor: name})
	}
	for _, private := range doc.Storyboard.Init.Privates {
		actor := strings.TrimSpace(private.EntityRef)
		i, ok := index[actor]
		if !ok {
			errs = append(errs, &document.ElementParseError{Element: "private", ID: actor, Err: errUnknownActor})
			continue
		}
		pl := &placements[i]
		for _, pa := range private.Actions {
			if err := applyInitAction(pl, &pa); err != nil {
				errs = append(errs, &document.ElementParseError{Element: "private", ID: actor, Err: err})
			}
		}
	}
	return placements, errs
}

func applyInitAction(pl *Placement, pa *xosc.PrivateAction) error {
	r := document.AttrReader{}
	switch {
	case pa.Teleport != nil:
		pos, err := ConvertPosition(&pa.Teleport.Position)
		if err != nil {
			return err
		}
		pl.Position = pos
	case pa.Longitudinal != nil && pa.Longitudinal.Speed != nil:
		sa := pa.Longitudinal.Speed
		if sa.Absolute == nil {
			return errors.New("initial speed must be absolute")
		}
		speed := r.RequiredFloat("value", sa.Absolute.Value)
		if r.Err() != nil {
			return r.Err()
		}
		pl.Speed = speed
	case pa.Routing != nil && pa.Routing.FollowTrajectory != nil:
		traj := pa.Routing.FollowTrajectory.Get()
		if traj == nil {
			return errors.New("follow trajectory action has no trajectory")
		}
		vertices := make([]TimedPosition, 0, len(traj.Vertices))
		for i, v := range traj.Vertices {
			pos, err := ConvertPosition(&v.Position)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			tp := TimedPosition{Time: r.RequiredFloat("time", v.Time), Position: *pos}
			if strings.TrimSpace(v.Speed) != "" {
				speed := r.Float("speed", v.Speed, 0)
				tp.Speed = &speed
			}
			if r.Err() != nil {
				return fmt.Errorf("vertex %d: %w", i, r.Err())
			}
			vertices = append(vertices, tp)
		}
		pl.Trajectory = vertices
	default:
		return errUnknownAction
	}
	return nil
}
