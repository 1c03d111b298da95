package junction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/document"
	"github.com/tsinghua-fib-lab/scenario-player/document/xodr"
)

// LaneLink 连接内的车道对应关系
type LaneLink struct {
	From int // 来路车道
	To   int // 连接道路车道
}

// Connection 路口内的一条连接
type Connection struct {
	ID             string
	IncomingRoad   string
	ConnectingRoad string
	ContactPoint   string // start | end
	LaneLinks      []LaneLink
}

// Junction 路口实体
// 功能：记录路口内的连接关系，几何由连接道路给出
type Junction struct {
	id          string
	name        string
	connections []Connection
}

// newJunction 根据文档元素创建Junction
// 返回：Junction实例；失败时返回*document.ElementParseError
func newJunction(base xodr.Junction) (*Junction, error) {
	var attr document.AttrReader
	j := &Junction{
		id:   attr.RequiredString("id", base.ID),
		name: base.Name,
	}
	for _, c := range base.Connections {
		conn := Connection{
			ID:             c.ID,
			IncomingRoad:   strings.TrimSpace(c.IncomingRoad),
			ConnectingRoad: attr.RequiredString("connectingRoad", c.ConnectingRoad),
			ContactPoint:   c.ContactPoint,
		}
		for _, ll := range c.LaneLinks {
			from, err1 := strconv.Atoi(strings.TrimSpace(ll.From))
			to, err2 := strconv.Atoi(strings.TrimSpace(ll.To))
			if err1 != nil || err2 != nil {
				attr.Fail(fmt.Errorf("connection %s: bad laneLink from=%q to=%q", c.ID, ll.From, ll.To))
				continue
			}
			conn.LaneLinks = append(conn.LaneLinks, LaneLink{From: from, To: to})
		}
		j.connections = append(j.connections, conn)
	}
	if err := attr.Err(); err != nil {
		return nil, &document.ElementParseError{Element: "junction", ID: base.ID, Err: err}
	}
	return j, nil
}

// ID 获取Junction的唯一标识符
func (j *Junction) ID() string {
	return j.id
}

// String 获取Junction的字符串表示
func (j *Junction) String() string {
	return fmt.Sprintf("Junction %s", j.id)
}

// Name 路口名
func (j *Junction) Name() string {
	return j.name
}

// Connections 路口内的连接
func (j *Junction) Connections() []Connection {
	return j.connections
}

// ConnectingRoads 路口内全部连接道路ID（去重，保持文档顺序）
func (j *Junction) ConnectingRoads() []string {
	return lo.Uniq(lo.Map(j.connections, func(c Connection, _ int) string {
		return c.ConnectingRoad
	}))
}
