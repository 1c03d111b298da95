package road

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tsinghua-fib-lab/scenario-player/document"
	"github.com/tsinghua-fib-lab/scenario-player/document/xodr"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/lane"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// 相邻几何段首尾距离小于该值时视为同一点
const jointEpsilon = 1e-6

// Link 道路连接目标
type Link struct {
	ElementType  string // road | junction
	ElementID    string
	ContactPoint string // start | end
}

// Road 道路实体
// 功能：保存参考线几何段、车道段、车道偏移与高程，并在创建时生成参考线与边界采样
// 说明：创建后只读
type Road struct {
	id       string
	name     string
	length   float64
	junction string // 所属路口，空表示普通道路

	predecessor *Link
	successor   *Link

	segments    []geometry.Segment    // 按S升序
	sections    []*lane.Section       // 按S升序
	laneOffsets []mathutil.PolyRecord // 车道偏移线相对参考线
	elevations  []mathutil.PolyRecord // 高程

	centerline []geometry.Sample    // 参考线采样
	boundaries [2][]geometry.Sample // 左/右最外侧边界
}

// newRoad 根据文档元素创建Road
// 功能：转换全部数值属性，任何一个属性错误都使整条道路被跳过
// 参数：base-文档中的road元素，resolution-参考线采样密度
// 返回：Road实例；失败时返回*document.ElementParseError
func newRoad(base xodr.Road, resolution float64) (*Road, error) {
	var attr document.AttrReader
	r := &Road{
		id:   attr.RequiredString("id", base.ID),
		name: base.Name,
	}
	r.length = attr.RequiredFloat("length", base.Length)
	if j := strings.TrimSpace(base.Junction); j != "" && j != "-1" {
		r.junction = j
	}
	r.predecessor = convertLink(base.Link.Predecessor)
	r.successor = convertLink(base.Link.Successor)
	for _, g := range base.PlanView {
		r.segments = append(r.segments, convertSegment(g, &attr))
	}
	sort.SliceStable(r.segments, func(i, j int) bool {
		return geometry.Head(r.segments[i]).S < geometry.Head(r.segments[j]).S
	})
	r.laneOffsets = convertRecords(base.LaneOffsets, &attr)
	r.elevations = convertRecords(base.ElevationProfile, &attr)
	for _, sec := range base.LaneSections {
		r.sections = append(r.sections, convertSection(sec, &attr))
	}
	sort.SliceStable(r.sections, func(i, j int) bool {
		return r.sections[i].S < r.sections[j].S
	})
	if len(r.segments) == 0 {
		attr.Fail(errors.New("road has no planView geometry"))
	}
	if err := attr.Err(); err != nil {
		return nil, &document.ElementParseError{Element: "road", ID: base.ID, Err: err}
	}
	r.centerline = r.buildCenterline(resolution)
	r.boundaries[entity.LEFT] = lane.BuildBoundary(r.centerline,
		lane.OuterBoundary(r.laneOffsets, r.sections, lane.SideLeft))
	r.boundaries[entity.RIGHT] = lane.BuildBoundary(r.centerline,
		lane.OuterBoundary(r.laneOffsets, r.sections, lane.SideRight))
	return r, nil
}

func convertLink(l *xodr.LinkElement) *Link {
	if l == nil {
		return nil
	}
	return &Link{ElementType: l.ElementType, ElementID: l.ElementID, ContactPoint: l.ContactPoint}
}

// buildCenterline 生成参考线采样
// 功能：按弧长顺序拼接各几何段的采样点
// 算法说明：
// 1. 采样点的S加上几何段起点S，得到道路弧长
// 2. 高程剖面给出Z
// 3. 与上一段末点重合的首点只保留一次
func (r *Road) buildCenterline(resolution float64) []geometry.Sample {
	out := make([]geometry.Sample, 0)
	for _, seg := range r.segments {
		h := geometry.Head(seg)
		for p := range geometry.Points(seg, resolution) {
			p.S += h.S
			p.Z = r.Elevation(p.S)
			if n := len(out); n > 0 {
				last := out[n-1]
				if math.Hypot(p.X-last.X, p.Y-last.Y) < jointEpsilon {
					continue
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// ID 获取Road的唯一标识符
func (r *Road) ID() string {
	return r.id
}

// String 获取Road的字符串表示
func (r *Road) String() string {
	return fmt.Sprintf("Road %s", r.id)
}

// Name 道路名
func (r *Road) Name() string {
	return r.name
}

// Length 参考线长度
func (r *Road) Length() float64 {
	return r.length
}

// Junction 所属路口ID
func (r *Road) Junction() string {
	return r.junction
}

// Predecessor 前驱连接，可能为nil
func (r *Road) Predecessor() *Link {
	return r.predecessor
}

// Successor 后继连接，可能为nil
func (r *Road) Successor() *Link {
	return r.successor
}

// Segments 参考线几何段
func (r *Road) Segments() []geometry.Segment {
	return r.segments
}

// Sections 车道段
func (r *Road) Sections() []*lane.Section {
	return r.sections
}

// LaneOffsets 车道偏移记录
func (r *Road) LaneOffsets() []mathutil.PolyRecord {
	return r.laneOffsets
}

// Elevations 高程记录
func (r *Road) Elevations() []mathutil.PolyRecord {
	return r.elevations
}

// Centerline 参考线采样
func (r *Road) Centerline() []geometry.Sample {
	return r.centerline
}

// Boundary 最外侧车道边界，side为entity.LEFT或entity.RIGHT
func (r *Road) Boundary(side int) []geometry.Sample {
	return r.boundaries[side]
}

// Elevation 弧长s处的高程
func (r *Road) Elevation(s float64) float64 {
	return mathutil.ResolvePolynomial(r.elevations, s, 0)
}

// LaneOffset 弧长s处车道偏移线相对参考线的横向距离
func (r *Road) LaneOffset(s float64) float64 {
	return mathutil.ResolvePolynomial(r.laneOffsets, s, 0)
}

// PoseAt 道路坐标转世界坐标
// 功能：在参考线弧长s处求值，并沿左法向平移t
// 参数：s-参考线弧长，t-相对参考线的横向距离（左正右负）
// 返回：世界坐标位姿，Z取高程
// 说明：s超出范围时由首/末几何段外推
func (r *Road) PoseAt(s, t float64) geometry.Sample {
	i := sort.Search(len(r.segments), func(i int) bool {
		return geometry.Head(r.segments[i]).S > s
	})
	seg := r.segments[max(i-1, 0)]
	p := geometry.Evaluate(seg, s-geometry.Head(seg).S)
	sample := geometry.Sample{S: s, X: p.X, Y: p.Y, Z: r.Elevation(s), Hdg: p.Hdg}
	return geometry.Offset(sample, t)
}

// LanePose 车道坐标转世界坐标
// 参数：laneID-车道ID，s-参考线弧长，offset-相对车道中心线的横向距离
func (r *Road) LanePose(laneID int, s, offset float64) (geometry.Sample, error) {
	sec := lane.SectionAt(r.sections, s)
	if sec == nil {
		return geometry.Sample{}, fmt.Errorf("%v has no lane section", r)
	}
	center, err := sec.CenterOffset(laneID, s-sec.S)
	if err != nil {
		return geometry.Sample{}, fmt.Errorf("%v: %w", r, err)
	}
	return r.PoseAt(s, r.LaneOffset(s)+center+offset), nil
}

// LaneCenterline 车道中心线
// 功能：对参考线每个采样点，在车道存在的位置上平移到车道中心
// 返回：按参考线弧长升序的采样，航向为参考线切向；车道在整条道路都不存在时返回错误
func (r *Road) LaneCenterline(laneID int) ([]geometry.Sample, error) {
	tangents := geometry.Tangents(r.centerline)
	out := make([]geometry.Sample, 0, len(r.centerline))
	for i, p := range r.centerline {
		sec := lane.SectionAt(r.sections, p.S)
		if sec == nil {
			break
		}
		center, err := sec.CenterOffset(laneID, p.S-sec.S)
		if err != nil {
			continue
		}
		p.Hdg = tangents[i]
		out = append(out, geometry.Offset(p, r.LaneOffset(p.S)+center))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no lane %d in %v", laneID, r)
	}
	return out, nil
}
