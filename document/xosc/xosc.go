// OpenSCENARIO场景文档的XML结构子集
// 说明：与xodr相同，数值属性以字符串保存，由事件编译器逐个转换
package xosc

import (
	"bytes"
	"encoding/xml"
	"errors"

	"github.com/tsinghua-fib-lab/scenario-player/document"
)

const docName = "OpenSCENARIO"

// Document OpenSCENARIO根元素
type Document struct {
	XMLName    xml.Name         `xml:"OpenSCENARIO"`
	FileHeader FileHeader       `xml:"FileHeader"`
	LogicFile  LogicFile        `xml:"RoadNetwork>LogicFile"`
	Entities   []ScenarioObject `xml:"Entities>ScenarioObject"`
	Storyboard *Storyboard      `xml:"Storyboard"`
}

// FileHeader 文档头
type FileHeader struct {
	Author      string `xml:"author,attr"`
	Description string `xml:"description,attr"`
	Date        string `xml:"date,attr"`
}

// LogicFile 关联的路网文件
type LogicFile struct {
	Filepath string `xml:"filepath,attr"`
}

// ScenarioObject 场景实体
type ScenarioObject struct {
	Name    string   `xml:"name,attr"`
	Vehicle *Vehicle `xml:"Vehicle"`
}

// Vehicle 车辆描述
type Vehicle struct {
	Name     string `xml:"name,attr"`
	Category string `xml:"vehicleCategory,attr"`
}

// Storyboard 故事板
type Storyboard struct {
	Init    Init    `xml:"Init"`
	Stories []Story `xml:"Story"`
}

// Init 初始化动作
type Init struct {
	Privates []Private `xml:"Actions>Private"`
}

// Private 针对单个实体的初始化动作
type Private struct {
	EntityRef string          `xml:"entityRef,attr"`
	Actions   []PrivateAction `xml:"PrivateAction"`
}

// Story 故事
type Story struct {
	Name string `xml:"name,attr"`
	Acts []Act  `xml:"Act"`
}

// Act 幕
type Act struct {
	Name           string          `xml:"name,attr"`
	ManeuverGroups []ManeuverGroup `xml:"ManeuverGroup"`
	StartTrigger   *Trigger        `xml:"StartTrigger"`
}

// ManeuverGroup 机动组，Actors为该组动作的执行者
type ManeuverGroup struct {
	Name      string      `xml:"name,attr"`
	Actors    []EntityRef `xml:"Actors>EntityRef"`
	Maneuvers []Maneuver  `xml:"Maneuver"`
}

// EntityRef 实体引用
type EntityRef struct {
	EntityRef string `xml:"entityRef,attr"`
}

// Maneuver 机动
type Maneuver struct {
	Name   string  `xml:"name,attr"`
	Events []Event `xml:"Event"`
}

// Event 事件
type Event struct {
	Name         string   `xml:"name,attr"`
	Priority     string   `xml:"priority,attr"`
	Actions      []Action `xml:"Action"`
	StartTrigger *Trigger `xml:"StartTrigger"`
}

// Action 动作，PrivateAction与UserDefinedAction二选一
type Action struct {
	Name              string             `xml:"name,attr"`
	Private           *PrivateAction     `xml:"PrivateAction"`
	UserDefinedAction *UserDefinedAction `xml:"UserDefinedAction"`
}

// PrivateAction 针对执行者自身的动作
type PrivateAction struct {
	Longitudinal *LongitudinalAction `xml:"LongitudinalAction"`
	Lateral      *LateralAction      `xml:"LateralAction"`
	Teleport     *TeleportAction     `xml:"TeleportAction"`
	Routing      *RoutingAction      `xml:"RoutingAction"`
}

// LongitudinalAction 纵向动作
type LongitudinalAction struct {
	Speed *SpeedAction `xml:"SpeedAction"`
}

// SpeedAction 速度动作
type SpeedAction struct {
	Dynamics TransitionDynamics `xml:"SpeedActionDynamics"`
	Absolute *ValueAttr         `xml:"SpeedActionTarget>AbsoluteTargetSpeed"`
	Relative *RelativeTarget    `xml:"SpeedActionTarget>RelativeTargetSpeed"`
}

// TransitionDynamics 过渡动态，dimension为time时value是持续时间，为rate时是变化率
type TransitionDynamics struct {
	Shape     string `xml:"dynamicsShape,attr"`
	Value     string `xml:"value,attr"`
	Dimension string `xml:"dynamicsDimension,attr"`
}

// ValueAttr 仅含value属性的元素
type ValueAttr struct {
	Value string `xml:"value,attr"`
}

// RelativeTarget 相对目标
type RelativeTarget struct {
	EntityRef string `xml:"entityRef,attr"`
	Value     string `xml:"value,attr"`
}

// LateralAction 横向动作
type LateralAction struct {
	LaneChange *LaneChangeAction `xml:"LaneChangeAction"`
}

// LaneChangeAction 变道动作
type LaneChangeAction struct {
	Dynamics TransitionDynamics `xml:"LaneChangeActionDynamics"`
	Absolute *ValueAttr         `xml:"LaneChangeTarget>AbsoluteTargetLane"`
	Relative *RelativeTarget    `xml:"LaneChangeTarget>RelativeTargetLane"`
}

// TeleportAction 瞬移动作
type TeleportAction struct {
	Position Position `xml:"Position"`
}

// Position 位置，World与Lane二选一
type Position struct {
	World *WorldPosition `xml:"WorldPosition"`
	Lane  *LanePosition  `xml:"LanePosition"`
}

// WorldPosition 世界坐标
type WorldPosition struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
	Z string `xml:"z,attr"`
	H string `xml:"h,attr"`
}

// LanePosition 车道坐标
type LanePosition struct {
	RoadID string `xml:"roadId,attr"`
	LaneID string `xml:"laneId,attr"`
	S      string `xml:"s,attr"`
	Offset string `xml:"offset,attr"`
}

// RoutingAction 路径动作
type RoutingAction struct {
	FollowTrajectory *FollowTrajectoryAction `xml:"FollowTrajectoryAction"`
}

// FollowTrajectoryAction 沿轨迹行驶
// 说明：兼容直接包含Trajectory与经由TrajectoryRef包含两种写法
type FollowTrajectoryAction struct {
	Trajectory    *Trajectory `xml:"Trajectory"`
	TrajectoryRef *Trajectory `xml:"TrajectoryRef>Trajectory"`
}

// Get 返回实际的轨迹
func (a *FollowTrajectoryAction) Get() *Trajectory {
	if a.Trajectory != nil {
		return a.Trajectory
	}
	return a.TrajectoryRef
}

// Trajectory 轨迹
type Trajectory struct {
	Name     string   `xml:"name,attr"`
	Vertices []Vertex `xml:"Shape>Polyline>Vertex"`
}

// Vertex 折线顶点，speed为可选速度提示
type Vertex struct {
	Time     string   `xml:"time,attr"`
	Speed    string   `xml:"speed,attr"`
	Position Position `xml:"Position"`
}

// UserDefinedAction 自定义动作
type UserDefinedAction struct {
	Command *CustomCommandAction `xml:"CustomCommandAction"`
}

// CustomCommandAction 自定义命令
type CustomCommandAction struct {
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Trigger 触发器，条件组之间为与，组内条件为或
type Trigger struct {
	Groups []ConditionGroup `xml:"ConditionGroup"`
}

// ConditionGroup 条件组
type ConditionGroup struct {
	Conditions []Condition `xml:"Condition"`
}

// Condition 条件，ByValue与ByEntity二选一
type Condition struct {
	Name     string             `xml:"name,attr"`
	Delay    string             `xml:"delay,attr"`
	Edge     string             `xml:"conditionEdge,attr"`
	ByValue  *ByValueCondition  `xml:"ByValueCondition"`
	ByEntity *ByEntityCondition `xml:"ByEntityCondition"`
}

// ByValueCondition 按值条件
type ByValueCondition struct {
	SimulationTime *RuleValue `xml:"SimulationTimeCondition"`
}

// RuleValue 比较规则与阈值
type RuleValue struct {
	Value string `xml:"value,attr"`
	Rule  string `xml:"rule,attr"`
}

// ByEntityCondition 按实体条件
type ByEntityCondition struct {
	TriggeringEntities TriggeringEntities `xml:"TriggeringEntities"`
	Speed              *RuleValue         `xml:"EntityCondition>SpeedCondition"`
	Distance           *RuleValue         `xml:"EntityCondition>DistanceCondition"`
	RelativeDistance   *RuleValue         `xml:"EntityCondition>RelativeDistanceCondition"`
}

// TriggeringEntities 触发实体集合与聚合规则（any/all）
type TriggeringEntities struct {
	Rule     string      `xml:"triggeringEntitiesRule,attr"`
	Entities []EntityRef `xml:"EntityRef"`
}

// Parse 解析OpenSCENARIO文档
// 返回：文档结构，失败时返回*document.ParseError
// 说明：缺少Storyboard视为结构错误
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &document.ParseError{Doc: docName, Err: errors.New("empty document")}
	}
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &document.ParseError{Doc: docName, Err: err}
	}
	if doc.Storyboard == nil {
		return nil, &document.ParseError{Doc: docName, Err: errors.New("missing Storyboard")}
	}
	return &doc, nil
}
