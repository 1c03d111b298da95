package lane

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/scenario-player/utils/mathutil"
)

// DefaultWidth 没有宽度记录时的车道宽度
const DefaultWidth = 3.5

// Lane 车道
// 功能：车道ID与宽度记录。ID为正表示参考线左侧，为负表示右侧，0为中心车道
type Lane struct {
	ID     int
	Type   string
	Widths []mathutil.PolyRecord // 按SOffset升序，SOffset相对车道段起点
}

// String 获取Lane的字符串表示
func (l *Lane) String() string {
	return fmt.Sprintf("Lane %d", l.ID)
}

// Width 车道在车道段内局部弧长sLocal处的宽度
func (l *Lane) Width(sLocal float64) float64 {
	return ResolveWidth(l.Widths, sLocal)
}

// ResolveWidth 解析车道宽度
// 功能：取最后一条SOffset<=sLocal的记录，在sLocal-SOffset处求值
// 参数：records-按SOffset升序的宽度记录，sLocal-车道段内局部弧长
// 返回：宽度，记录为空时返回DefaultWidth
func ResolveWidth(records []mathutil.PolyRecord, sLocal float64) float64 {
	return mathutil.ResolvePolynomial(records, sLocal, DefaultWidth)
}

// Section 车道段
// 功能：从S开始直到下一车道段起点，左右两侧车道分别按|ID|从内到外排序
type Section struct {
	S      float64
	Left   []*Lane // ID 1,2,3...
	Center *Lane
	Right  []*Lane // ID -1,-2,-3...
}

// NewSection 创建车道段并按距参考线由近到远排序车道
func NewSection(s float64, left []*Lane, center *Lane, right []*Lane) *Section {
	sortByDistance := func(lanes []*Lane) {
		sort.SliceStable(lanes, func(i, j int) bool {
			return abs(lanes[i].ID) < abs(lanes[j].ID)
		})
	}
	sortByDistance(left)
	sortByDistance(right)
	return &Section{S: s, Left: left, Center: center, Right: right}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Lane 按ID查找车道段内的车道
func (sec *Section) Lane(id int) (*Lane, bool) {
	switch {
	case id > 0:
		return lo.Find(sec.Left, func(l *Lane) bool { return l.ID == id })
	case id < 0:
		return lo.Find(sec.Right, func(l *Lane) bool { return l.ID == id })
	default:
		return sec.Center, sec.Center != nil
	}
}

// side 返回车道所在一侧的车道列表与符号（左正右负）
func (sec *Section) side(id int) ([]*Lane, float64) {
	if id > 0 {
		return sec.Left, 1
	}
	return sec.Right, -1
}

// CenterOffset 车道中心线相对车道偏移线的横向距离
// 功能：累加内侧车道宽度再加上本车道半宽，左侧为正、右侧为负
// 参数：id-车道ID，sLocal-车道段内局部弧长
// 返回：横向距离，车道不存在时返回错误
func (sec *Section) CenterOffset(id int, sLocal float64) (float64, error) {
	if id == 0 {
		return 0, nil
	}
	lanes, sign := sec.side(id)
	sum := 0.0
	for _, l := range lanes {
		w := l.Width(sLocal)
		if l.ID == id {
			return sign * (sum + w/2), nil
		}
		sum += w
	}
	return 0, fmt.Errorf("no lane %d in section s=%v", id, sec.S)
}

// OuterOffset 一侧最外侧车道边界相对车道偏移线的横向距离
func (sec *Section) OuterOffset(side int, sLocal float64) float64 {
	lanes, sign := sec.Right, -1.0
	if side == 0 {
		lanes, sign = sec.Left, 1.0
	}
	sum := 0.0
	for _, l := range lanes {
		sum += l.Width(sLocal)
	}
	return sign * sum
}

// SectionAt 查找包含弧长s的车道段（最后一个S<=s的车道段）
// 说明：s早于首个车道段时返回首个车道段，列表为空时返回nil
func SectionAt(sections []*Section, s float64) *Section {
	if len(sections) == 0 {
		return nil
	}
	i := sort.Search(len(sections), func(i int) bool {
		return sections[i].S > s
	})
	return sections[max(i-1, 0)]
}
