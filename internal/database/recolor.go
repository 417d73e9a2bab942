package database

import (
	"context"
	"database/sql"
	"fmt"

	"time-ledger/internal/tracker"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddNamedMigrationContext("00002_recolor_default_clients.go", upRecolorClients, downRecolorClients)
}

// upRecolorClients replaces the old shared default colour with the colour
// derived from each client's name.
func upRecolorClients(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM clients WHERE color = ?`, tracker.LegacyDefaultColor)
	if err != nil {
		return fmt.Errorf("select legacy clients: %w", err)
	}
	type row struct{ id, name string }
	var legacy []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.name); err != nil {
			rows.Close()
			return err
		}
		legacy = append(legacy, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range legacy {
		if _, err := tx.ExecContext(ctx, `UPDATE clients SET color = ? WHERE id = ?`, tracker.ClientColor(r.name), r.id); err != nil {
			return fmt.Errorf("recolor client %s: %w", r.id, err)
		}
	}
	return nil
}

// downRecolorClients is a no-op: the original colours are not recoverable.
func downRecolorClients(ctx context.Context, tx *sql.Tx) error {
	return nil
}
