// 路网解析：OpenDRIVE文档到道路、路口实体与包围盒
package roadnet

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/scenario-player/document/xodr"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/junction"
	"github.com/tsinghua-fib-lab/scenario-player/entity/road"
	"github.com/tsinghua-fib-lab/scenario-player/geometry"
)

// Options 解析选项
type Options struct {
	Resolution float64 // 参考线采样密度（点/米），<=0时取1
}

// Header 文档头信息
type Header struct {
	Name     string
	Version  string
	RevMajor string
	RevMinor string
}

// Network 路网模型
// 功能：每次加载计算一次，之后只读
type Network struct {
	header    Header
	roads     *road.RoadManager
	junctions *junction.JunctionManager
	bbox      orb.Bound
}

// Parse 解析路网文档
// 功能：文档结构错误时整体失败；单条道路/路口的错误只跳过该元素并记录警告
// 参数：doc-OpenDRIVE文档原文，opts-解析选项
// 返回：路网模型、警告列表（*document.ElementParseError）、顶层错误（*document.ParseError）
func Parse(doc []byte, opts Options) (*Network, []error, error) {
	d, err := xodr.Parse(doc)
	if err != nil {
		return nil, nil, err
	}
	if opts.Resolution <= 0 {
		opts.Resolution = 1
	}
	n := &Network{
		header: Header{
			Name:     d.Header.Name,
			Version:  d.Header.Version,
			RevMajor: d.Header.RevMajor,
			RevMinor: d.Header.RevMinor,
		},
		roads:     road.NewManager(),
		junctions: junction.NewManager(),
	}
	warnings := n.roads.Init(d.Roads, opts.Resolution)
	warnings = append(warnings, n.junctions.Init(d.Junctions)...)
	n.bbox = ComputeBoundingBox(n.roads.Roads(), n.junctions.Junctions(), n.roads)
	log.Infof("road network %q: %d roads, %d junctions, %d warnings, bbox %v-%v",
		n.header.Name, len(n.roads.Roads()), len(n.junctions.Junctions()), len(warnings), n.bbox.Min, n.bbox.Max)
	return n, warnings, nil
}

// ComputeBoundingBox 计算路网包围盒
// 功能：覆盖所有道路的参考线与最外侧车道边界采样点
// 参数：roads-道路，junctions-路口，lookup-按ID查找道路
// 返回：包围盒；没有任何点时为空包围盒
// 说明：路口的连接道路无法在已解析道路中找到（或没有连接）时，路口贡献一个原点占位点
func ComputeBoundingBox(roads []*road.Road, junctions []*junction.Junction, lookup entity.IRoadManager) orb.Bound {
	var bound orb.Bound
	empty := true
	extend := func(samples []geometry.Sample) {
		for _, p := range samples {
			if empty {
				bound = orb.Bound{Min: orb.Point{p.X, p.Y}, Max: orb.Point{p.X, p.Y}}
				empty = false
				continue
			}
			bound = bound.Extend(orb.Point{p.X, p.Y})
		}
	}
	for _, r := range roads {
		extend(r.Centerline())
		extend(r.Boundary(entity.LEFT))
		extend(r.Boundary(entity.RIGHT))
	}
	for _, j := range junctions {
		resolved := len(j.Connections()) > 0
		for _, id := range j.ConnectingRoads() {
			if _, err := lookup.GetOrError(id); err != nil {
				resolved = false
				break
			}
		}
		if !resolved {
			log.Debugf("%v has unresolved connections, origin used as placeholder", j)
			extend([]geometry.Sample{{}})
		}
	}
	return bound
}

// Header 文档头
func (n *Network) Header() Header {
	return n.header
}

// RoadManager 道路管理器
func (n *Network) RoadManager() *road.RoadManager {
	return n.roads
}

// JunctionManager 路口管理器
func (n *Network) JunctionManager() *junction.JunctionManager {
	return n.junctions
}

// Roads 全部道路
func (n *Network) Roads() []*road.Road {
	return n.roads.Roads()
}

// Junctions 全部路口
func (n *Network) Junctions() []*junction.Junction {
	return n.junctions.Junctions()
}

// Road 按ID查找道路
func (n *Network) Road(id string) (*road.Road, bool) {
	return n.roads.Road(id)
}

// Junction 按ID查找路口
func (n *Network) Junction(id string) (entity.IJunction, error) {
	return n.junctions.GetOrError(id)
}

// BoundingBox 路网包围盒
func (n *Network) BoundingBox() orb.Bound {
	return n.bbox
}
