package route

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dbroute/dbroute/binder"
	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/service/metrics"
	"github.com/go-basic/uuid"
	goerrors "github.com/go-errors/errors"
	"github.com/pkg/errors"
)

// Recorder receives one entry per executed connection. It must not block.
type Recorder interface {
	Record(entry model.ExecutionLog)
}

type Executor struct {
	vault        *common.Vault
	opener       database.Opener
	maxWorkers   int
	queryTimeout time.Duration
	recorder     Recorder
}

type Option func(*Executor)

func WithMaxWorkers(n int) Option {
	return func(e *Executor) { e.maxWorkers = n }
}

func WithQueryTimeout(d time.Duration) Option {
	return func(e *Executor) { e.queryTimeout = d }
}

func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

func NewExecutor(vault *common.Vault, opener database.Opener, opts ...Option) *Executor {
	e := &Executor{
		vault:      vault,
		opener:     opener,
		maxWorkers: common.MaxWorkersDefault,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs rt on every connection attached to it. Each connection gets
// its own outcome, errors never cross from one connection to another. The
// result holds exactly one entry per attached connection.
func (e *Executor) Execute(ctx context.Context, rt *model.Route, attached []*model.Connection, req *model.ExecuteReq) model.ExecutionResult {
	requested := make(map[string]bool, len(req.Connections))
	for _, slug := range req.Connections {
		requested[strings.ToLower(slug)] = true
	}
	for slug := range requested {
		if !isAttached(slug, attached) {
			log.Logger.Warnf("route %s: requested connection %s is not attached, ignored", rt.Slug, slug)
		}
	}
	params := req.ParamsBySlug()

	return e.fanOut(attached, func(conn *model.Connection) model.Outcome {
		slug := strings.ToLower(conn.Slug)
		if !requested[slug] {
			return model.SkippedOutcome(model.ReasonNotRequested)
		}
		values, ok := params[slug]
		if !ok {
			return model.SkippedOutcome(model.ReasonNoParameters)
		}
		start := time.Now()
		outcome := e.executeOn(ctx, rt, conn, values)
		outcome.Duration = time.Since(start)
		e.record(rt, conn, outcome)
		return outcome
	}, func(conn *model.Connection, o model.Outcome) {
		metrics.ObserveExecution(rt.Slug, conn.Slug, o.Status, o.Duration)
	})
}

// fanOut runs fn for every connection on a pool sized by the number of
// connections. Panics in fn become error outcomes.
func (e *Executor) fanOut(conns []*model.Connection, fn func(*model.Connection) model.Outcome, done func(*model.Connection, model.Outcome)) model.ExecutionResult {
	result := model.ExecutionResult{Data: make(map[string]model.Outcome, len(conns))}
	if len(conns) == 0 {
		result.Finalize()
		return result
	}

	var lock sync.Mutex
	pool := common.NewWorkerPool(common.MinInt(len(conns), e.maxWorkers), len(conns))
	defer pool.Close()
	for _, conn := range conns {
		conn := conn
		_ = pool.Submit(func() {
			var outcome model.Outcome
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Logger.Errorf("connection %s panicked: %s", conn.Slug, goerrors.Wrap(r, 2).ErrorStack())
						outcome = model.ErrorOutcome(errors.Errorf("panic: %v", r))
					}
				}()
				outcome = fn(conn)
			}()
			if done != nil {
				done(conn, outcome)
			}
			lock.Lock()
			result.Data[conn.Slug] = outcome
			lock.Unlock()
		})
	}
	pool.Wait()
	result.Finalize()
	return result
}

func (e *Executor) executeOn(ctx context.Context, rt *model.Route, desc *model.Connection, values map[string]interface{}) model.Outcome {
	target, conn, err := e.open(ctx, desc)
	if err != nil {
		log.Logger.Errorf("route %s on %s: %v", rt.Slug, desc.Slug, err)
		return model.ErrorOutcome(err)
	}
	defer closeConn(desc.Slug, conn)

	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	outcome, err := e.run(ctx, rt, target.Dialect, conn, values)
	if err != nil {
		log.Logger.Errorf("route %s on %s: %v", rt.Slug, desc.Slug, err)
		return model.ErrorOutcome(err)
	}
	return outcome
}

func (e *Executor) open(ctx context.Context, desc *model.Connection) (database.Target, database.Conn, error) {
	target, conn, err := database.Connect(ctx, e.opener, e.vault, desc)
	if err != nil {
		return target, nil, err
	}
	metrics.InflightConnections.Inc()
	return target, conn, nil
}

func closeConn(slug string, conn database.Conn) {
	metrics.InflightConnections.Dec()
	if err := conn.Close(); err != nil {
		log.Logger.Warnf("close connection %s: %v", slug, err)
	}
}

func (e *Executor) run(ctx context.Context, rt *model.Route, d database.Dialect, conn database.Conn, values map[string]interface{}) (model.Outcome, error) {
	res, err := Resolve(ctx, rt, conn, d, values)
	if err != nil {
		return model.Outcome{}, err
	}
	runPost := rt.IsPostProcessed && rt.HasPostQuery()
	if res.Empty() && !runPost {
		return model.SkippedOutcome(model.ReasonNoQuery), nil
	}

	outcome := model.SuccessOutcome("success")
	outcome.Branch = res.Branch
	if !res.Empty() {
		query := res.Query
		if res.Legacy() {
			if query, err = binder.ApplyFragments(query, rt.Parameters, values); err != nil {
				return model.Outcome{}, err
			}
		}
		affected, outputs, err := execStatement(ctx, conn, d, query, values)
		if err != nil {
			return model.Outcome{}, err
		}
		outcome.RowsAffected = affected
		outcome.Outputs = outputs
	}
	if runPost {
		if _, _, err = execStatement(ctx, conn, d, rt.PostQuery, values); err != nil {
			return model.Outcome{}, errors.Wrap(err, "post query")
		}
	}
	if err = conn.Commit(); err != nil {
		return model.Outcome{}, err
	}
	return outcome, nil
}

func execStatement(ctx context.Context, conn database.Conn, d database.Dialect, query string, values map[string]interface{}) (int64, map[string]interface{}, error) {
	stmt, args, outputs := binder.Prepare(query, values, d)
	affected, err := conn.Exec(ctx, stmt.SQL, args...)
	if err != nil {
		return 0, nil, err
	}
	return affected, outputs.Values(), nil
}

func (e *Executor) record(rt *model.Route, conn *model.Connection, o model.Outcome) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(model.ExecutionLog{
		ID:         uuid.New(),
		Route:      rt.Slug,
		Connection: conn.Slug,
		Status:     o.Status,
		Message:    o.Message,
		DurationMs: o.Duration.Milliseconds(),
		CreatedAt:  time.Now(),
	})
}

func isAttached(slug string, attached []*model.Connection) bool {
	for _, c := range attached {
		if strings.EqualFold(c.Slug, slug) {
			return true
		}
	}
	return false
}

// Describe is the log line of an execution result.
func Describe(rt *model.Route, result model.ExecutionResult) string {
	var ok, skipped, failed int
	for _, o := range result.Data {
		switch o.Status {
		case model.OutcomeSuccess:
			ok++
		case model.OutcomeSkipped:
			skipped++
		default:
			failed++
		}
	}
	return fmt.Sprintf("route %s: %s (%d success, %d skipped, %d error)", rt.Slug, result.Status, ok, skipped, failed)
}
