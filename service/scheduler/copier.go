package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbroute/dbroute/binder"
	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
)

type connectionStore interface {
	GetConnectionBySlug(slug string) (model.Connection, error)
}

// Copier moves the rows of a job's source query into its destination table,
// page by page, inside one destination transaction.
type Copier struct {
	vault  *common.Vault
	opener database.Opener
	store  connectionStore
}

func NewCopier(vault *common.Vault, opener database.Opener, store connectionStore) *Copier {
	return &Copier{vault: vault, opener: opener, store: store}
}

// InsertTemplate builds the destination insert with one @pN placeholder per
// column. Table and columns must pass the identifier allow-list first.
func InsertTemplate(table string, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", common.NewConfigError("no destination columns")
	}
	if err := common.EnsureIdentifiers(append([]string{table}, columns...)...); err != nil {
		return "", err
	}
	holders := make([]string, len(columns))
	for i := range columns {
		holders[i] = fmt.Sprintf("@p%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(holders, ", ")), nil
}

func (c *Copier) Copy(ctx context.Context, job model.IntegrationJob) (int64, error) {
	insert, err := InsertTemplate(job.DestinationTable, job.Columns)
	if err != nil {
		return 0, err
	}
	batch := job.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	srcDesc, err := c.store.GetConnectionBySlug(job.Source)
	if err != nil {
		return 0, common.NewNotFoundError("source connection %s: %v", job.Source, err)
	}
	dstDesc, err := c.store.GetConnectionBySlug(job.Destination)
	if err != nil {
		return 0, common.NewNotFoundError("destination connection %s: %v", job.Destination, err)
	}

	src, srcConn, err := database.Connect(ctx, c.opener, c.vault, &srcDesc)
	if err != nil {
		return 0, err
	}
	defer srcConn.Close()
	dst, dstConn, err := database.Connect(ctx, c.opener, c.vault, &dstDesc)
	if err != nil {
		return 0, err
	}
	defer dstConn.Close()

	base := database.TrimStatement(job.SourceQuery)
	var copied int64
	for offset := 0; ; offset += batch {
		page, err := database.Paginate(base, src.Dialect, batch, offset)
		if err != nil {
			return 0, err
		}
		rs, err := srcConn.Query(ctx, page)
		if err != nil {
			return 0, err
		}
		if len(rs.Rows) > 0 && len(rs.Columns) < len(job.Columns) {
			return 0, common.NewConfigError("source query returns %d columns, destination needs %d", len(rs.Columns), len(job.Columns))
		}
		for _, row := range rs.Rows {
			values := make(map[string]interface{}, len(job.Columns))
			for i := range job.Columns {
				values[fmt.Sprintf("p%d", i+1)] = row[i]
			}
			stmt, args, _ := binder.Prepare(insert, values, dst.Dialect)
			if _, err = dstConn.Exec(ctx, stmt.SQL, args...); err != nil {
				return 0, err
			}
			copied++
		}
		if len(rs.Rows) < batch {
			break
		}
	}
	if err = dstConn.Commit(); err != nil {
		return 0, err
	}
	log.Logger.Debugf("job %s: %s -> %s.%s, %d rows", job.Name, job.Source, job.Destination, job.DestinationTable, copied)
	return copied, nil
}
