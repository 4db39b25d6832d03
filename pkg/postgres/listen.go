package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/point-rota/pkg/db"
)

const (
	changeChannel    = "point_rota_changes"
	reconnectBackoff = 2 * time.Second
)

// Watch subscribes to changes of a collection. The first call starts a LISTEN
// connection that receives notifications from every writer of the database.
func (d *DB) Watch(ctx context.Context, collection db.Collection) (<-chan struct{}, error) {
	d.listenOnce.Do(func() {
		listenCtx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel
		d.wg.Add(1)
		go d.listen(listenCtx)
	})
	return d.changes.Watch(ctx, collection), nil
}

// listen keeps a LISTEN connection open until ctx is done, reconnecting on failure
func (d *DB) listen(ctx context.Context) {
	defer d.wg.Done()

	for {
		err := d.listenSession(ctx)
		if ctx.Err() != nil {
			return
		}
		d.logger.Warn("Change listener disconnected, reconnecting", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}

		// Anything written while disconnected was missed
		d.changes.NotifyAll()
	}
}

func (d *DB) listenSession(ctx context.Context) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", changeChannel, err)
	}

	d.logger.Debug("Listening for changes", zap.String("channel", changeChannel), zap.String("tenant", d.tenantID))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for notification: %w", err)
		}

		collection, ok := parsePayload(notification.Payload, d.tenantID)
		if !ok {
			continue
		}
		d.changes.Notify(collection)
	}
}

// parsePayload splits a "<tenant>:<table>" payload and reports whether it belongs to tenantID
func parsePayload(payload, tenantID string) (db.Collection, bool) {
	i := strings.LastIndex(payload, ":")
	if i < 0 || payload[:i] != tenantID {
		return "", false
	}
	return db.Collection(payload[i+1:]), true
}
