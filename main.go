package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/grpcreflect"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"github.com/tsinghua-fib-lab/scenario-player/output/journal"
	"github.com/tsinghua-fib-lab/scenario-player/output/mqttpub"
	"github.com/tsinghua-fib-lab/scenario-player/output/wsstream"
	"github.com/tsinghua-fib-lab/scenario-player/task"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
	"github.com/tsinghua-fib-lab/scenario-player/utils/input"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

var (
	// 本程序监听的RPC与websocket地址，配置文件中的output.listen优先
	listenAddr = flag.String("listen", ":51102", "RPC listening address")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 数据加载input的缓存地址，设置为空则禁用缓存功能
	// 缓存：将MongoDB中的文档根据db、col与name保存到本地文件系统，并总是先试图从文件系统中加载
	cacheDir = flag.String("cache", "data/", "input cache dir path (empty means disable cache)")
	// 实时播放的推进间隔
	tickInterval = flag.Duration("tick", 50*time.Millisecond, "real-time playback tick interval")
	// 启动后是否暂停（播放倍速为0）
	paused = flag.Bool("paused", false, "start with playback speed 0")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "player")
)

// closer 退出时需要关闭的输出
type closer func()

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	c, err := config.Load(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := task.NewContext(c)
	if *paused {
		t.SetPlaybackSpeed(0)
	}
	player := task.NewPlayer(t)
	mux := http.NewServeMux()
	closers := setupOutputs(sigCtx, t.RuntimeConfig().All.Output, t, player, mux)

	// 输出先于加载注册，0时刻的事件状态变化也会被输出
	in, err := input.Init(sigCtx, c.Input, *cacheDir)
	if err != nil {
		log.Panicf("input load err: %v", err)
	}
	if _, err := t.Load(in.Road, in.Scenario); err != nil {
		log.Panicf("document load err: %v", err)
	}

	mux.Handle(player.Handler())
	mux.Handle(t.Clock().Handler(player))
	reflector := grpcreflect.NewStaticReflector(task.ServiceNames()...)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))

	addr := *listenAddr
	if c.Output.Listen != "" {
		addr = c.Output.Listen
	}
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(cors.AllowAll().Handler(mux), &http2.Server{}),
	}
	go func() {
		log.Infof("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("serve: %v", err)
			stop()
		}
	}()

	player.Run(sigCtx, *tickInterval)

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	for _, f := range closers {
		f()
	}
}

// setupOutputs 创建配置中的输出，注册为位姿输出与事件状态观察者
// 说明：MQTT与数据库连接失败只记录日志，不影响播放
func setupOutputs(ctx context.Context, c config.Output, t *task.Context, player *task.Player, mux *http.ServeMux) []closer {
	var closers []closer
	if c.Websocket != nil {
		hub := wsstream.NewHub()
		player.AddSink(hub)
		t.Observe(hub.ObserveEvent)
		mux.Handle(c.Websocket.Path, hub)
		closers = append(closers, hub.Close)
		log.Infof("websocket output on %s", c.Websocket.Path)
	}
	if c.MQTT != nil {
		pub := mqttpub.New(*c.MQTT)
		if err := pub.Connect(); err != nil {
			log.Errorf("mqtt: failed to connect to %s: %v", c.MQTT.Broker, err)
		} else {
			player.AddSink(pub)
			t.Observe(pub.ObserveEvent)
			closers = append(closers, pub.Close)
			log.Infof("mqtt output to %s", pub.PosesTopic())
		}
	}
	if c.Postgres != nil {
		j, err := journal.Open(ctx, *c.Postgres, t.Session)
		if err != nil {
			log.Errorf("journal: %v", err)
		} else {
			t.Observe(j.ObserveEvent)
			closers = append(closers, func() {
				if err := j.Close(); err != nil {
					log.Warnf("journal close: %v", err)
				}
			})
		}
	}
	return closers
}
