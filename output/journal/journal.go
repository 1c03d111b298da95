package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/tsinghua-fib-lab/scenario-player/entity/event"
	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

// 待写入队列长度，队列满时丢弃新记录
const queueSize = 1024

// Row 一条事件状态变化记录
type Row struct {
	Session string
	EventID string
	Name    string
	Actor   string
	Kind    string
	From    string
	To      string
	SimTime float64
	At      time.Time
}

// Journal 事件状态日志
// 功能：把事件状态变化异步写入PostgreSQL表，按加载会话区分
// 说明：观察者在播放器锁内被调用，只入队不访问数据库
type Journal struct {
	db      *sql.DB
	table   string
	session func() string
	rows    chan Row
	wg      sync.WaitGroup
}

// Open 连接数据库、建表并启动写入协程
// 参数：c-数据库配置，session-返回当前加载会话ID
func Open(ctx context.Context, c config.PostgresOutput, session func() string) (*Journal, error) {
	db, err := sql.Open("postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	j := newJournal(db, c.Table, session)
	if _, err := db.ExecContext(ctx, j.createTableSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", c.Table, err)
	}
	j.wg.Add(1)
	go j.run()
	log.Infof("journal writes to table %s", c.Table)
	return j, nil
}

func newJournal(db *sql.DB, table string, session func() string) *Journal {
	return &Journal{
		db:      db,
		table:   table,
		session: session,
		rows:    make(chan Row, queueSize),
	}
}

func (j *Journal) createTableSQL() string {
	t := pq.QuoteIdentifier(j.table)
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          BIGSERIAL PRIMARY KEY,
			session     TEXT NOT NULL,
			event_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			actor       TEXT NOT NULL,
			kind        TEXT NOT NULL,
			status_from TEXT NOT NULL,
			status_to   TEXT NOT NULL,
			sim_time    DOUBLE PRECISION NOT NULL,
			at          TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %s ON %s(session, sim_time);
	`, t, pq.QuoteIdentifier("idx_"+j.table+"_session"), t)
}

func (j *Journal) insertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %s (session, event_id, name, actor, kind, status_from, status_to, sim_time, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, pq.QuoteIdentifier(j.table))
}

// run 写入协程
func (j *Journal) run() {
	defer j.wg.Done()
	query := j.insertSQL()
	for r := range j.rows {
		if _, err := j.db.Exec(query,
			r.Session, r.EventID, r.Name, r.Actor, r.Kind, r.From, r.To, r.SimTime, r.At,
		); err != nil {
			log.Errorf("insert %s %s->%s: %v", r.EventID, r.From, r.To, err)
		}
	}
}

// ObserveEvent 记录事件状态变化，签名满足event.Observer
func (j *Journal) ObserveEvent(ev *event.Event, from, to event.Status, now float64) {
	r := Row{
		Session: j.session(),
		EventID: ev.ID,
		Name:    ev.Name,
		Actor:   ev.TargetActor,
		Kind:    string(ev.Kind),
		From:    from.String(),
		To:      to.String(),
		SimTime: now,
		At:      time.Now(),
	}
	select {
	case j.rows <- r:
	default:
		log.Warnf("queue full, drop %s %s->%s", r.EventID, r.From, r.To)
	}
}

// Close 写完队列中的记录后关闭数据库
func (j *Journal) Close() error {
	close(j.rows)
	j.wg.Wait()
	return j.db.Close()
}
