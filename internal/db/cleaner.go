package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

const purgeBooksQuery = `
DELETE FROM books
 WHERE deleted_at IS NOT NULL
   AND deleted_at < $1
`

// StartSoftDeleteCleaner purges books soft-deleted more than retention ago,
// once per interval, until ctx is done.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := PurgeDeletedBooks(ctx, db, now.Add(-retention))
				if err != nil {
					log.Error("failed to clean soft-deleted books", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned soft-deleted books", zap.Int64("removed", removed))
				}
			}
		}
	}()
}

// PurgeDeletedBooks removes books soft-deleted before cutoff and reports how
// many rows went away.
func PurgeDeletedBooks(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, purgeBooksQuery, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
