package config

// InputPath 指定输入文档来源的配置（MongoDB、文件系统）
// 功能：定义文档输入路径，文件优先于MongoDB
// 说明：MongoDB中一个文档对应一条记录，按name字段筛选，文档原文保存在data字段
type InputPath struct {
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
	Name string `yaml:"name,omitempty"` // 记录名，为空则取集合中的第一条记录
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 指定播放器所有输入文档的配置项
type Input struct {
	URI      string    `yaml:"uri,omitempty"` // MongoDB连接字符串
	Road     InputPath `yaml:"road"`          // 路网文档（OpenDRIVE）
	Scenario InputPath `yaml:"scenario"`      // 场景文档（OpenSCENARIO）
}

// ControlStep 回放步长配置
type ControlStep struct {
	Interval float64 `yaml:"interval"` // 跳转重放时的固定子步长（秒）
}

// 轨迹插值方式
const (
	InterpolationLinear = "linear"
	InterpolationSpline = "spline"
)

// Control 播放器控制配置
// 功能：定义时间推进、采样精度、车辆与插值等核心参数
type Control struct {
	Step             ControlStep `yaml:"step"`
	SnapshotInterval float64     `yaml:"snapshot_interval,omitempty"` // 快照间隔（仿真秒），用于加速跳转
	Resolution       float64     `yaml:"resolution,omitempty"`        // 参考线采样密度（点/米）
	LaneWidth        float64     `yaml:"lane_width,omitempty"`        // 变道横向偏移使用的车道宽度
	Interpolation    string      `yaml:"interpolation,omitempty"`     // 轨迹插值方式 linear|spline
	PlaybackSpeed    float64     `yaml:"playback_speed,omitempty"`    // 初始播放倍速
	CacheSize        int         `yaml:"cache_size,omitempty"`        // 每辆车的插值缓存容量
}

// WebsocketOutput 位姿推送（websocket）
type WebsocketOutput struct {
	Path string `yaml:"path"` // HTTP路径，如 /ws
}

// MQTTOutput 位姿发布（MQTT）
type MQTTOutput struct {
	Broker   string `yaml:"broker"`              // 如 tcp://localhost:1883
	Topic    string `yaml:"topic"`               // 主题前缀
	ClientID string `yaml:"client_id,omitempty"` // 客户端ID
	QoS      byte   `yaml:"qos,omitempty"`
}

// PostgresOutput 事件状态日志（PostgreSQL）
type PostgresOutput struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table,omitempty"` // 表名，默认 event_journal
}

// Output 输出配置，均为可选
type Output struct {
	Listen    string           `yaml:"listen,omitempty"` // RPC与websocket监听地址
	Websocket *WebsocketOutput `yaml:"websocket,omitempty"`
	MQTT      *MQTTOutput      `yaml:"mqtt,omitempty"`
	Postgres  *PostgresOutput  `yaml:"postgres,omitempty"`
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`            // 输入
	Control Control `yaml:"control"`          // 回放控制
	Output  Output  `yaml:"output,omitempty"` // 输出
}
