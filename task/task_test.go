package task_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/task"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

const roadDoc = `<OpenDRIVE>
  <header name="straight" version="1.00" revMajor="1" revMinor="6"/>
  <road id="1" length="500" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="500"><line/></geometry></planView>
    <lanes><laneSection s="0">
      <left><lane id="1" type="driving"><width sOffset="0" a="3.5" b="0" c="0" d="0"/></lane></left>
      <center><lane id="0" type="none"/></center>
      <right><lane id="-1" type="driving"><width sOffset="0" a="3.5" b="0" c="0" d="0"/></lane></right>
    </laneSection></lanes>
  </road>
</OpenDRIVE>`

// ego以10m/s出发，3秒时2秒内加速到20m/s，速度超过19m/s时1秒内减速到5m/s
const scenarioDoc = `<OpenSCENARIO>
<Entities>
  <ScenarioObject name="ego"><Vehicle name="car"/></ScenarioObject>
  <ScenarioObject name="npc"><Vehicle name="car"/></ScenarioObject>
</Entities>
<Storyboard>
  <Init><Actions>
    <Private entityRef="ego">
      <PrivateAction><TeleportAction><Position><WorldPosition x="0" y="0" h="0"/></Position></TeleportAction></PrivateAction>
      <PrivateAction><LongitudinalAction><SpeedAction>
        <SpeedActionDynamics dynamicsShape="step" value="0" dynamicsDimension="time"/>
        <SpeedActionTarget><AbsoluteTargetSpeed value="10"/></SpeedActionTarget>
      </SpeedAction></LongitudinalAction></PrivateAction>
    </Private>
    <Private entityRef="npc">
      <PrivateAction><TeleportAction><Position><LanePosition roadId="1" laneId="-1" s="50" offset="0"/></Position></TeleportAction></PrivateAction>
      <PrivateAction><LongitudinalAction><SpeedAction>
        <SpeedActionDynamics dynamicsShape="step" value="0" dynamicsDimension="time"/>
        <SpeedActionTarget><AbsoluteTargetSpeed value="8"/></SpeedActionTarget>
      </SpeedAction></LongitudinalAction></PrivateAction>
    </Private>
  </Actions></Init>
  <Story name="s"><Act name="a">
    <ManeuverGroup name="g"><Actors><EntityRef entityRef="ego"/></Actors>
      <Maneuver name="m">
        <Event name="accelerate" priority="overwrite"><Action name="a">
          <PrivateAction><LongitudinalAction><SpeedAction>
            <SpeedActionDynamics dynamicsShape="cubic" value="2" dynamicsDimension="time"/>
            <SpeedActionTarget><AbsoluteTargetSpeed value="20"/></SpeedActionTarget>
          </SpeedAction></LongitudinalAction></PrivateAction>
        </Action>
        <StartTrigger><ConditionGroup><Condition name="t" delay="0" conditionEdge="rising">
          <ByValueCondition><SimulationTimeCondition value="3" rule="greaterThan"/></ByValueCondition>
        </Condition></ConditionGroup></StartTrigger></Event>
        <Event name="slow_down" priority="overwrite"><Action name="a">
          <PrivateAction><LongitudinalAction><SpeedAction>
            <SpeedActionDynamics dynamicsShape="cubic" value="1" dynamicsDimension="time"/>
            <SpeedActionTarget><AbsoluteTargetSpeed value="5"/></SpeedActionTarget>
          </SpeedAction></LongitudinalAction></PrivateAction>
        </Action>
        <StartTrigger><ConditionGroup><Condition name="fast" delay="0" conditionEdge="none">
          <ByEntityCondition>
            <TriggeringEntities triggeringEntitiesRule="any"><EntityRef entityRef="ego"/></TriggeringEntities>
            <EntityCondition><SpeedCondition value="19" rule="greaterThan"/></EntityCondition>
          </ByEntityCondition>
        </Condition></ConditionGroup></StartTrigger></Event>
      </Maneuver>
    </ManeuverGroup>
  </Act></Story>
</Storyboard>
</OpenSCENARIO>`

// accelerateAtZero 去掉加速事件的触发条件，使其在0时刻激活
var accelerateAtZero = strings.Replace(scenarioDoc, `</Action>
        <StartTrigger><ConditionGroup><Condition name="t" delay="0" conditionEdge="rising">
          <ByValueCondition><SimulationTimeCondition value="3" rule="greaterThan"/></ByValueCondition>
        </Condition></ConditionGroup></StartTrigger></Event>`, `</Action></Event>`, 1)

func newContext(t *testing.T) *task.Context {
	return loadScenario(t, scenarioDoc)
}

func loadScenario(t *testing.T, doc string) *task.Context {
	c := config.Config{Control: config.Control{
		Step:             config.ControlStep{Interval: 0.05},
		SnapshotInterval: 2,
	}}
	ctx := task.NewContext(c)
	warnings, err := ctx.Load([]byte(roadDoc), []byte(doc))
	require.NoError(t, err)
	require.Empty(t, warnings)
	return ctx
}

func poseByID(t *testing.T, poses []entity.ActorPose, id string) entity.ActorPose {
	for _, p := range poses {
		if p.ID == id {
			return p
		}
	}
	require.Failf(t, "pose not found", "actor %s", id)
	return entity.ActorPose{}
}

func assertPosesEqual(t *testing.T, want, got []entity.ActorPose) {
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.InDelta(t, want[i].X, got[i].X, 1e-6, want[i].ID)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-6, want[i].ID)
		assert.InDelta(t, want[i].Heading, got[i].Heading, 1e-9, want[i].ID)
		assert.InDelta(t, want[i].Speed, got[i].Speed, 1e-6, want[i].ID)
	}
}

func statuses(t *testing.T, ctx *task.Context) map[string]event.Status {
	events, err := ctx.Events()
	require.NoError(t, err)
	out := make(map[string]event.Status)
	for _, ev := range events {
		out[ev.Name] = ev.Status
	}
	return out
}

func TestNotLoaded(t *testing.T) {
	ctx := task.NewContext(config.Config{})
	assert.False(t, ctx.Loaded())
	assert.ErrorIs(t, ctx.SetTime(1), task.ErrNotLoaded)
	assert.ErrorIs(t, ctx.Tick(0.1), task.ErrNotLoaded)
	assert.ErrorIs(t, ctx.Reset(), task.ErrNotLoaded)
	_, err := ctx.GetRoadNetwork()
	assert.ErrorIs(t, err, task.ErrNotLoaded)
	_, err = ctx.GetActorPoses(1)
	assert.ErrorIs(t, err, task.ErrNotLoaded)
	assert.Nil(t, ctx.Poses())
}

func TestLoadKeepsStateOnParseError(t *testing.T) {
	ctx := newContext(t)
	session := ctx.Session()
	require.NoError(t, ctx.SetTime(4))

	_, err := ctx.Load([]byte("<OpenDRIVE"), []byte(scenarioDoc))
	assert.Error(t, err)
	_, err = ctx.Load([]byte(roadDoc), []byte("not xml"))
	assert.Error(t, err)
	assert.True(t, ctx.Loaded())
	assert.Equal(t, session, ctx.Session())
	assert.Equal(t, 4.0, ctx.Time())
}

func TestInitialPoses(t *testing.T) {
	ctx := newContext(t)
	poses := ctx.Poses()
	require.Len(t, poses, 2)
	assert.Equal(t, "ego", poses[0].ID)
	assert.Equal(t, "npc", poses[1].ID)
	assert.InDelta(t, 0, poses[0].X, 1e-9)
	assert.InDelta(t, 10, poses[0].Speed, 1e-9)
	// 车道-1中心在参考线右侧1.75米
	assert.InDelta(t, 50, poses[1].X, 1e-6)
	assert.InDelta(t, -1.75, poses[1].Y, 1e-6)
}

func TestEventsFireInOrder(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, ctx.SetTime(2.9))
	assert.Equal(t, map[string]event.Status{
		"accelerate": event.StatusPending,
		"slow_down":  event.StatusPending,
	}, statuses(t, ctx))
	assert.InDelta(t, 29, poseByID(t, ctx.Poses(), "ego").X, 1e-6)

	require.NoError(t, ctx.SetTime(3.5))
	assert.Equal(t, event.StatusActive, statuses(t, ctx)["accelerate"])
	assert.Equal(t, event.StatusPending, statuses(t, ctx)["slow_down"])

	// 加速在到达19m/s后被减速事件替换
	require.NoError(t, ctx.SetTime(10))
	s := statuses(t, ctx)
	assert.Equal(t, event.StatusCancelled, s["accelerate"])
	assert.Equal(t, event.StatusCompleted, s["slow_down"])
	ego := poseByID(t, ctx.Poses(), "ego")
	assert.InDelta(t, 5, ego.Speed, 1e-9)
	npc := poseByID(t, ctx.Poses(), "npc")
	assert.InDelta(t, 130, npc.X, 1e-6)
}

func TestSeekMatchesPlayback(t *testing.T) {
	played := newContext(t)
	for _, dt := range []float64{0.013, 0.4, 1.234, 0.07, 2.5, 0.333, 0.9, 1.01, 0.017, 1.6} {
		require.NoError(t, played.Tick(dt))
	}
	end := played.Time()
	assert.Greater(t, end, 8.0)

	seeked := newContext(t)
	poses, err := seeked.GetActorPoses(end)
	require.NoError(t, err)
	assertPosesEqual(t, played.Poses(), poses)
	assert.Equal(t, statuses(t, played), statuses(t, seeked))
}

func TestBackwardSeek(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, ctx.SetTime(12))
	back, err := ctx.GetActorPoses(4.2)
	require.NoError(t, err)

	fresh := newContext(t)
	want, err := fresh.GetActorPoses(4.2)
	require.NoError(t, err)
	assertPosesEqual(t, want, back)
	assert.Equal(t, statuses(t, fresh), statuses(t, ctx))

	// 再次前进使用已有的快照
	again, err := ctx.GetActorPoses(12)
	require.NoError(t, err)
	want, err = fresh.GetActorPoses(12)
	require.NoError(t, err)
	assertPosesEqual(t, want, again)
}

func TestNegativeSeekClampsToZero(t *testing.T) {
	ctx := newContext(t)
	initial := ctx.Poses()
	require.NoError(t, ctx.SetTime(5))
	require.NoError(t, ctx.SetTime(-3))
	assert.Equal(t, 0.0, ctx.Time())
	assertPosesEqual(t, initial, ctx.Poses())
}

func TestReset(t *testing.T) {
	ctx := newContext(t)
	initial := ctx.Poses()
	require.NoError(t, ctx.SetTime(10))
	require.NoError(t, ctx.Reset())
	assert.Equal(t, 0.0, ctx.Time())
	assertPosesEqual(t, initial, ctx.Poses())
	for name, s := range statuses(t, ctx) {
		assert.Equal(t, event.StatusPending, s, name)
	}
}

func TestResetReturnsTimeZeroEventsToPending(t *testing.T) {
	require.NotEqual(t, scenarioDoc, accelerateAtZero)
	ctx := loadScenario(t, accelerateAtZero)
	assert.Equal(t, event.StatusActive, statuses(t, ctx)["accelerate"])

	require.NoError(t, ctx.SetTime(5))
	require.NoError(t, ctx.Reset())
	assert.Equal(t, 0.0, ctx.Time())
	for name, s := range statuses(t, ctx) {
		assert.Equal(t, event.StatusPending, s, name)
	}
	ego := poseByID(t, ctx.Poses(), "ego")
	assert.InDelta(t, 0, ego.X, 1e-9)
	assert.InDelta(t, 10, ego.Speed, 1e-9)

	// 之后推进时0时刻的事件照常激活，结果与新加载相同
	require.NoError(t, ctx.SetTime(1))
	assert.Equal(t, event.StatusActive, statuses(t, ctx)["accelerate"])
	fresh := loadScenario(t, accelerateAtZero)
	want, err := fresh.GetActorPoses(1)
	require.NoError(t, err)
	assertPosesEqual(t, want, ctx.Poses())

	require.NoError(t, ctx.Reset())
	require.NoError(t, ctx.Tick(0.5))
	assert.Equal(t, event.StatusActive, statuses(t, ctx)["accelerate"])
	want, err = fresh.GetActorPoses(0.5)
	require.NoError(t, err)
	assertPosesEqual(t, want, ctx.Poses())
}

func TestPlaybackSpeed(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, ctx.SetPlaybackSpeed(2))
	require.NoError(t, ctx.Tick(0.5))
	assert.InDelta(t, 1, ctx.Time(), 1e-12)

	require.NoError(t, ctx.SetPlaybackSpeed(0))
	require.NoError(t, ctx.Tick(0.5))
	assert.InDelta(t, 1, ctx.Time(), 1e-12)

	assert.Error(t, ctx.SetPlaybackSpeed(-1))
}

func TestEventCallbacks(t *testing.T) {
	ctx := newContext(t)
	var fired []string
	require.NoError(t, ctx.RegisterEventCallback("", func(ev *event.Event) {
		fired = append(fired, ev.Name)
	}))
	assert.Error(t, ctx.RegisterEventCallback("missing", func(*event.Event) {}))

	require.NoError(t, ctx.SetTime(10))
	assert.Equal(t, []string{"accelerate", "slow_down"}, fired)
	require.NoError(t, ctx.SetTime(10))
	assert.Len(t, fired, 2)
}

func TestObserverSurvivesReload(t *testing.T) {
	ctx := task.NewContext(config.Config{})
	var transitions int
	ctx.Observe(func(ev *event.Event, from, to event.Status, now float64) { transitions++ })
	_, err := ctx.Load([]byte(roadDoc), []byte(scenarioDoc))
	require.NoError(t, err)
	require.NoError(t, ctx.SetTime(10))
	first := transitions
	assert.Positive(t, first)

	_, err = ctx.Load([]byte(roadDoc), []byte(scenarioDoc))
	require.NoError(t, err)
	require.NoError(t, ctx.SetTime(10))
	assert.Equal(t, 2*first, transitions)
}

func TestGetRoadNetwork(t *testing.T) {
	ctx := newContext(t)
	n, err := ctx.GetRoadNetwork()
	require.NoError(t, err)
	assert.Equal(t, "straight", n.Header.Name)
	require.Len(t, n.Roads, 1)
	r := n.Roads[0]
	assert.Equal(t, "1", r.ID)
	assert.Equal(t, 500.0, r.Length)
	require.Len(t, r.Lanes, 2)
	assert.Equal(t, -1, r.Lanes[0].ID)
	assert.Equal(t, 1, r.Lanes[1].ID)
	assert.Equal(t, "driving", r.Lanes[0].Type)
	assert.InDelta(t, -1.75, r.Lanes[0].Centerline[0].Y, 1e-9)
	assert.InDelta(t, 1.75, r.Lanes[1].Centerline[0].Y, 1e-9)
	assert.InDelta(t, 3.5, r.LeftBoundary[0].Y, 1e-9)
	assert.InDelta(t, -3.5, r.RightBoundary[0].Y, 1e-9)
	assert.Empty(t, n.Junctions)
	assert.InDelta(t, 500, n.BoundingBox.Max[0], 1e-6)
}
