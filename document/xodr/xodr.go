// OpenDRIVE路网文档的XML结构子集
// 说明：数值属性以字符串保存，由上层按元素逐个转换，单个元素的数值错误不影响整个文档
package xodr

import (
	"bytes"
	"encoding/xml"
	"errors"

	"github.com/tsinghua-fib-lab/scenario-player/document"
)

const docName = "OpenDRIVE"

// Document OpenDRIVE根元素
type Document struct {
	XMLName   xml.Name   `xml:"OpenDRIVE"`
	Header    Header     `xml:"header"`
	Roads     []Road     `xml:"road"`
	Junctions []Junction `xml:"junction"`
}

// Header 文档头
type Header struct {
	RevMajor string `xml:"revMajor,attr"`
	RevMinor string `xml:"revMinor,attr"`
	Name     string `xml:"name,attr"`
	Version  string `xml:"version,attr"`
}

// Road 道路
type Road struct {
	ID               string       `xml:"id,attr"`
	Name             string       `xml:"name,attr"`
	Length           string       `xml:"length,attr"`
	Junction         string       `xml:"junction,attr"`
	Link             Link         `xml:"link"`
	PlanView         []Geometry   `xml:"planView>geometry"`
	ElevationProfile []Polynomial `xml:"elevationProfile>elevation"`
	LaneOffsets      []Polynomial `xml:"lanes>laneOffset"`
	LaneSections     []Section    `xml:"lanes>laneSection"`
}

// Link 道路前驱/后继
type Link struct {
	Predecessor *LinkElement `xml:"predecessor"`
	Successor   *LinkElement `xml:"successor"`
}

// LinkElement 连接目标
type LinkElement struct {
	ElementType  string `xml:"elementType,attr"`
	ElementID    string `xml:"elementId,attr"`
	ContactPoint string `xml:"contactPoint,attr"`
}

// Geometry 参考线几何段，Line/Arc/...中恰好一个非空
type Geometry struct {
	S          string      `xml:"s,attr"`
	X          string      `xml:"x,attr"`
	Y          string      `xml:"y,attr"`
	Hdg        string      `xml:"hdg,attr"`
	Length     string      `xml:"length,attr"`
	Line       *struct{}   `xml:"line"`
	Arc        *Arc        `xml:"arc"`
	Spiral     *Spiral     `xml:"spiral"`
	Poly3      *Polynomial `xml:"poly3"`
	ParamPoly3 *ParamPoly3 `xml:"paramPoly3"`
	// 其他未识别的子元素，保留名称用于日志
	Other []xml.Name `xml:",any"`
}

// Arc 圆弧参数
type Arc struct {
	Curvature string `xml:"curvature,attr"`
}

// Spiral 螺旋线参数
type Spiral struct {
	CurvStart string `xml:"curvStart,attr"`
	CurvEnd   string `xml:"curvEnd,attr"`
}

// ParamPoly3 参数三次曲线参数
type ParamPoly3 struct {
	AU     string `xml:"aU,attr"`
	BU     string `xml:"bU,attr"`
	CU     string `xml:"cU,attr"`
	DU     string `xml:"dU,attr"`
	AV     string `xml:"aV,attr"`
	BV     string `xml:"bV,attr"`
	CV     string `xml:"cV,attr"`
	DV     string `xml:"dV,attr"`
	PRange string `xml:"pRange,attr"`
}

// Polynomial 三次多项式记录（width/laneOffset/elevation/poly3）
// 说明：width使用sOffset，elevation与laneOffset使用s
type Polynomial struct {
	S       string `xml:"s,attr"`
	SOffset string `xml:"sOffset,attr"`
	A       string `xml:"a,attr"`
	B       string `xml:"b,attr"`
	C       string `xml:"c,attr"`
	D       string `xml:"d,attr"`
}

// Start 记录的起点属性名与取值
func (p Polynomial) Start() (string, string) {
	if p.SOffset != "" {
		return "sOffset", p.SOffset
	}
	return "s", p.S
}

// Section 车道段
type Section struct {
	S      string `xml:"s,attr"`
	Left   []Lane `xml:"left>lane"`
	Center []Lane `xml:"center>lane"`
	Right  []Lane `xml:"right>lane"`
}

// Lane 车道
type Lane struct {
	ID     string       `xml:"id,attr"`
	Type   string       `xml:"type,attr"`
	Widths []Polynomial `xml:"width"`
}

// Junction 路口
type Junction struct {
	ID          string       `xml:"id,attr"`
	Name        string       `xml:"name,attr"`
	Connections []Connection `xml:"connection"`
}

// Connection 路口内连接
type Connection struct {
	ID             string     `xml:"id,attr"`
	IncomingRoad   string     `xml:"incomingRoad,attr"`
	ConnectingRoad string     `xml:"connectingRoad,attr"`
	ContactPoint   string     `xml:"contactPoint,attr"`
	LaneLinks      []LaneLink `xml:"laneLink"`
}

// LaneLink 连接内车道对应关系
type LaneLink struct {
	From string `xml:"from,attr"`
	To   string `xml:"to,attr"`
}

// Parse 解析OpenDRIVE文档
// 功能：只校验XML格式与根元素，不转换数值
// 返回：文档结构，失败时返回*document.ParseError
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &document.ParseError{Doc: docName, Err: errors.New("empty document")}
	}
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &document.ParseError{Doc: docName, Err: err}
	}
	return &doc, nil
}
