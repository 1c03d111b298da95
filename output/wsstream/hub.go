package wsstream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tsinghua-fib-lab/scenario-player/entity"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/output"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	// 每个连接的待发送队列长度，队列满时丢弃新消息
	sendQueue = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub websocket位姿推送
// 功能：维护全部连接，把位姿帧与事件状态帧以JSON文本消息广播给每个连接
// 说明：发送不阻塞播放循环，慢连接的消息被丢弃
type Hub struct {
	clients  *xsync.MapOf[string, *client]
	upgrader websocket.Upgrader
}

// NewHub 创建Hub
func NewHub() *Hub {
	return &Hub{
		clients: xsync.NewMapOf[string, *client](),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Clients 当前连接数
func (h *Hub) Clients() int {
	return h.clients.Size()
}

// ServeHTTP 升级为websocket连接并注册
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	id := uuid.NewString()
	c := &client{conn: conn, send: make(chan []byte, sendQueue), done: make(chan struct{})}
	h.clients.Store(id, c)
	log.Infof("client %s connected from %s", id, r.RemoteAddr)
	go h.read(id, c)
	go h.write(id, c)
}

// read 处理pong与关闭，连接断开时注销
func (h *Hub) read(id string, c *client) {
	defer func() {
		h.clients.Delete(id)
		close(c.done)
		log.Infof("client %s disconnected", id)
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write 发送队列中的消息与心跳
func (h *Hub) write(id string, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debugf("write to %s: %v", id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// broadcast 编码并放入每个连接的发送队列
func (h *Hub) broadcast(f output.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	h.clients.Range(func(id string, c *client) bool {
		select {
		case c.send <- data:
		default:
			log.Debugf("client %s is slow, drop %s frame at t=%.3f", id, f.Type, f.Time)
		}
		return true
	})
	return nil
}

// Publish 广播位姿
func (h *Hub) Publish(t float64, poses []entity.ActorPose) error {
	return h.broadcast(output.PoseFrame(t, poses))
}

// ObserveEvent 广播事件状态变化，签名满足event.Observer
func (h *Hub) ObserveEvent(ev *event.Event, from, to event.Status, now float64) {
	if err := h.broadcast(output.EventFrame(ev, from, to, now)); err != nil {
		log.Warnf("broadcast %v: %v", ev, err)
	}
}

// Close 关闭全部连接
func (h *Hub) Close() {
	h.clients.Range(func(id string, c *client) bool {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		c.conn.Close()
		return true
	})
}
