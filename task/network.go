package task

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/junction"
	"github.com/tsinghua-fib-lab/scenario-player/entity/road"
	"github.com/tsinghua-fib-lab/scenario-player/entity/roadnet"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

// LaneGeometry 车道中心线
type LaneGeometry struct {
	ID         int
	Type       string
	Centerline []geometry.Sample
}

// RoadGeometry 单条道路的渲染几何
type RoadGeometry struct {
	ID            string
	Name          string
	Junction      string
	Length        float64
	Centerline    []geometry.Sample
	LeftBoundary  []geometry.Sample
	RightBoundary []geometry.Sample
	Lanes         []LaneGeometry // 按车道ID升序，不含中心车道
}

// JunctionInfo 路口
type JunctionInfo struct {
	ID              string
	Name            string
	ConnectingRoads []string
}

// RoadNetwork 路网的渲染视图
type RoadNetwork struct {
	Header      roadnet.Header
	Roads       []RoadGeometry
	Junctions   []JunctionInfo
	BoundingBox orb.Bound
}

// GetRoadNetwork 当前路网的渲染视图
func (ctx *Context) GetRoadNetwork() (*RoadNetwork, error) {
	if ctx.network == nil {
		return nil, ErrNotLoaded
	}
	n := ctx.network
	junctions := lo.Map(n.Junctions(), func(j *junction.Junction, _ int) JunctionInfo {
		return JunctionInfo{ID: j.ID(), Name: j.Name(), ConnectingRoads: j.ConnectingRoads()}
	})
	return &RoadNetwork{
		Header:      n.Header(),
		Roads:       lo.Map(n.Roads(), func(r *road.Road, _ int) RoadGeometry { return roadGeometry(r) }),
		Junctions:   junctions,
		BoundingBox: n.BoundingBox(),
	}, nil
}

func roadGeometry(r *road.Road) RoadGeometry {
	g := RoadGeometry{
		ID:            r.ID(),
		Name:          r.Name(),
		Junction:      r.Junction(),
		Length:        r.Length(),
		Centerline:    r.Centerline(),
		LeftBoundary:  r.Boundary(entity.LEFT),
		RightBoundary: r.Boundary(entity.RIGHT),
	}
	types := make(map[int]string)
	for _, sec := range r.Sections() {
		for _, l := range slices.Concat(sec.Left, sec.Right) {
			if _, ok := types[l.ID]; !ok {
				types[l.ID] = l.Type
			}
		}
	}
	ids := lo.Keys(types)
	slices.Sort(ids)
	for _, id := range ids {
		line, err := r.LaneCenterline(id)
		if err != nil {
			log.Debugf("skip lane %d of %v: %v", id, r, err)
			continue
		}
		g.Lanes = append(g.Lanes, LaneGeometry{ID: id, Type: types[id], Centerline: line})
	}
	return g
}
