package measurement

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDriver stores hit counters in a JSONB column.
type PostgresDriver struct {
	DB        *sql.DB
	TableName string
	Separator string
}

// NewPostgresDriver creates a PostgreSQL driver. Open db with the "pgx" driver name.
func NewPostgresDriver(db *sql.DB, tableName string) *PostgresDriver {
	if tableName == "" {
		tableName = "measurement_stats"
	}
	return &PostgresDriver{
		DB:        db,
		TableName: tableName,
		Separator: "::",
	}
}

// Setup creates the table.
func (d *PostgresDriver) Setup() error {
	if d.DB == nil {
		return fmt.Errorf("postgres driver requires DB")
	}
	_, err := d.DB.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key VARCHAR(255) PRIMARY KEY, data JSONB NOT NULL DEFAULT '{}'::jsonb);`, d.TableName))
	return err
}

func (d *PostgresDriver) Description() string {
	return "PostgresDriver"
}

// Inc reads, merges and upserts each bucket inside one transaction.
func (d *PostgresDriver) Inc(keys []BucketKey, values map[string]any) error {
	if len(keys) == 0 {
		return nil
	}
	if d.DB == nil {
		return fmt.Errorf("postgres driver requires DB")
	}
	packed := Pack(values)
	if len(packed) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, key := range keys {
		joined := key.Join(d.Separator)
		existing, err := d.readPacked(tx, joined)
		if err != nil {
			return err
		}
		merged, err := incrementCounters(existing, packed)
		if err != nil {
			return err
		}
		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		query := fmt.Sprintf(`INSERT INTO %s (key, data) VALUES ($1, $2::jsonb) ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data;`, d.TableName)
		if _, err := tx.Exec(query, joined, string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get fetches counters for keys in order.
func (d *PostgresDriver) Get(keys []BucketKey) ([]map[string]any, error) {
	if len(keys) == 0 {
		return []map[string]any{}, nil
	}
	if d.DB == nil {
		return nil, fmt.Errorf("postgres driver requires DB")
	}

	results := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		packed, err := d.readPacked(nil, key.Join(d.Separator))
		if err != nil {
			return nil, err
		}
		results = append(results, Unpack(packed))
	}
	return results, nil
}

func (d *PostgresDriver) readPacked(tx *sql.Tx, key string) (map[string]any, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE key = $1 LIMIT 1;`, d.TableName)

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRow(query, key)
	} else {
		row = d.DB.QueryRow(query, key)
	}

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return decodePacked(raw), nil
}
