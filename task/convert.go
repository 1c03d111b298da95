package task

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

// 以下函数把查询结果转为structpb可接受的通用值

// posesValue 车辆位姿列表
func posesValue(poses []entity.ActorPose) []any {
	return lo.Map(poses, func(p entity.ActorPose, _ int) any {
		return map[string]any{
			"id":      p.ID,
			"x":       p.X,
			"y":       p.Y,
			"z":       p.Z,
			"heading": p.Heading,
			"speed":   p.Speed,
		}
	})
}

// samplesValue 采样点展平为[x0,y0,z0,hdg0,x1,...]
func samplesValue(samples []geometry.Sample) []any {
	out := make([]any, 0, len(samples)*4)
	for _, s := range samples {
		out = append(out, s.X, s.Y, s.Z, s.Hdg)
	}
	return out
}

func (n *RoadNetwork) toMap() map[string]any {
	roads := lo.Map(n.Roads, func(r RoadGeometry, _ int) any {
		return map[string]any{
			"id":             r.ID,
			"name":           r.Name,
			"junction":       r.Junction,
			"length":         r.Length,
			"centerline":     samplesValue(r.Centerline),
			"left_boundary":  samplesValue(r.LeftBoundary),
			"right_boundary": samplesValue(r.RightBoundary),
			"lanes": lo.Map(r.Lanes, func(l LaneGeometry, _ int) any {
				return map[string]any{
					"id":         l.ID,
					"type":       l.Type,
					"centerline": samplesValue(l.Centerline),
				}
			}),
		}
	})
	junctions := lo.Map(n.Junctions, func(j JunctionInfo, _ int) any {
		return map[string]any{
			"id":               j.ID,
			"name":             j.Name,
			"connecting_roads": lo.ToAnySlice(j.ConnectingRoads),
		}
	})
	return map[string]any{
		"header": map[string]any{
			"name":      n.Header.Name,
			"version":   n.Header.Version,
			"rev_major": n.Header.RevMajor,
			"rev_minor": n.Header.RevMinor,
		},
		"bounding_box": map[string]any{
			"min": []any{n.BoundingBox.Min[0], n.BoundingBox.Min[1]},
			"max": []any{n.BoundingBox.Max[0], n.BoundingBox.Max[1]},
		},
		"roads":     roads,
		"junctions": junctions,
	}
}
