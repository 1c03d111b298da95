// 输入文档的加载：文件系统或MongoDB，可选本地缓存
package input

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 连接与查询MongoDB的超时
const mongoTimeout = 30 * time.Second

// Input 输入数据
// 功能：存储播放器所需的两个文档原文
type Input struct {
	Road     []byte // 路网文档（OpenDRIVE）
	Scenario []byte // 场景文档（OpenSCENARIO）
}

// record MongoDB中保存文档的记录
type record struct {
	Name string        `bson:"name"`
	Data bson.RawValue `bson:"data"` // 字符串或二进制
}

// Init 加载全部输入文档
// 功能：根据配置从文件或MongoDB读取路网与场景文档
// 参数：ctx-上下文，in-输入配置，cacheDir-缓存目录，为空或无效时不使用缓存
// 返回：文档原文，任何一个文档读取失败时返回错误
// 算法说明：
// 1. 配置了文件路径的文档直接读文件
// 2. 其余文档从MongoDB按name读取，启用缓存时优先读缓存，下载后写入缓存
func Init(ctx context.Context, in config.Input, cacheDir string) (*Input, error) {
	if !preCheckCache(cacheDir) {
		cacheDir = ""
	}
	var client *mongo.Client
	if needMongo(in) {
		connectCtx, cancel := context.WithTimeout(ctx, mongoTimeout)
		defer cancel()
		var err error
		client, err = mongo.Connect(connectCtx, options.Client().ApplyURI(in.URI))
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", in.URI, err)
		}
		defer client.Disconnect(context.Background())
	}
	road, err := load(ctx, client, in.Road, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("load road document: %w", err)
	}
	scenario, err := load(ctx, client, in.Scenario, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("load scenario document: %w", err)
	}
	return &Input{Road: road, Scenario: scenario}, nil
}

func needMongo(in config.Input) bool {
	return in.Road.File == "" || in.Scenario.File == ""
}

// load 加载单个文档
func load(ctx context.Context, client *mongo.Client, p config.InputPath, cacheDir string) ([]byte, error) {
	if p.File != "" {
		log.Infof("read %s", p.File)
		return os.ReadFile(p.File)
	}
	if data, ok := readCache(cacheDir, p); ok {
		return data, nil
	}
	if client == nil {
		return nil, fmt.Errorf("no MongoDB client for %s.%s", p.GetDb(), p.GetColl())
	}
	log.Infof("start fetching from %s.%s", p.GetDb(), p.GetColl())
	data, err := download(ctx, client.Database(p.GetDb()).Collection(p.GetColl()), p.Name)
	if err != nil {
		return nil, err
	}
	log.Infof("finish fetching from %s.%s", p.GetDb(), p.GetColl())
	writeCache(cacheDir, p, data)
	return data, nil
}

// download 从集合中读取一条记录的data字段
// 说明：name为空时取_id最小的记录
func download(ctx context.Context, coll *mongo.Collection, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()
	filter := bson.D{}
	if name != "" {
		filter = bson.D{{Key: "name", Value: name}}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	var r record
	if err := coll.FindOne(ctx, filter, opts).Decode(&r); err != nil {
		return nil, fmt.Errorf("find %q in %s: %w", name, coll.Name(), err)
	}
	return recordData(r)
}

func recordData(r record) ([]byte, error) {
	if s, ok := r.Data.StringValueOK(); ok {
		return []byte(s), nil
	}
	if _, b, ok := r.Data.BinaryOK(); ok {
		return b, nil
	}
	return nil, fmt.Errorf("record %q: data must be string or binary, got %v", r.Name, r.Data.Type)
}
