package route

import (
	"context"
	"strings"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/service/metrics"
)

const OutputNextval = "nextval"

// NextValues fetches the next value of a named sequence on every requested
// connection. Slugs with no stored connection still get an entry.
func (e *Executor) NextValues(ctx context.Context, req *model.SequenceReq, known map[string]*model.Connection) model.ExecutionResult {
	sequences := req.SequenceBySlug()
	conns := make([]*model.Connection, 0, len(req.Connections))
	seen := make(map[string]bool)
	missing := make(map[string]bool)
	for _, slug := range req.Connections {
		key := strings.ToLower(slug)
		if seen[key] {
			continue
		}
		seen[key] = true
		if c, ok := known[key]; ok && c != nil {
			conns = append(conns, c)
		} else {
			missing[slug] = true
			conns = append(conns, &model.Connection{Slug: slug})
		}
	}

	return e.fanOut(conns, func(conn *model.Connection) model.Outcome {
		if missing[conn.Slug] {
			return model.ErrorOutcome(common.NewNotFoundError("connection %s does not exist", conn.Slug))
		}
		sequence := strings.TrimSpace(sequences[strings.ToLower(conn.Slug)])
		if sequence == "" {
			return model.SkippedOutcome(model.ReasonNoParameters)
		}
		return e.nextValueOn(ctx, conn, sequence)
	}, func(conn *model.Connection, o model.Outcome) {
		metrics.ObserveExecution("sequence", conn.Slug, o.Status, o.Duration)
	})
}

func (e *Executor) nextValueOn(ctx context.Context, desc *model.Connection, sequence string) model.Outcome {
	target, err := database.Resolve(desc)
	if err != nil {
		return model.ErrorOutcome(err)
	}
	query, err := target.Dialect.SequenceNext(sequence)
	if err != nil {
		return model.ErrorOutcome(err)
	}

	_, conn, err := e.open(ctx, desc)
	if err != nil {
		log.Logger.Errorf("sequence %s on %s: %v", sequence, desc.Slug, err)
		return model.ErrorOutcome(err)
	}
	defer closeConn(desc.Slug, conn)

	rs, err := conn.Query(ctx, query)
	if err != nil {
		log.Logger.Errorf("sequence %s on %s: %v", sequence, desc.Slug, err)
		return model.ErrorOutcome(err)
	}
	value, ok := rs.First()
	if !ok {
		return model.ErrorOutcome(common.NewQueryError(nil, "sequence %s returned no value", sequence))
	}
	outcome := model.SuccessOutcome("success")
	outcome.Outputs = map[string]interface{}{OutputNextval: value}
	return outcome
}
