package measurement

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteDriver stores hit counters as JSON documents in SQLite.
type SQLiteDriver struct {
	DB        *sql.DB
	TableName string
	Separator string
}

// NewSQLiteDriver creates a SQLite driver.
func NewSQLiteDriver(db *sql.DB, tableName string) *SQLiteDriver {
	if tableName == "" {
		tableName = "measurement_stats"
	}
	return &SQLiteDriver{
		DB:        db,
		TableName: tableName,
		Separator: "::",
	}
}

// Setup applies pragmas and creates the table.
func (d *SQLiteDriver) Setup() error {
	if d.DB == nil {
		return fmt.Errorf("sqlite driver requires DB")
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := d.DB.Exec(p); err != nil {
			return err
		}
	}
	_, err := d.DB.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, data TEXT NOT NULL DEFAULT '{}');`, d.TableName))
	return err
}

func (d *SQLiteDriver) Description() string {
	return "SQLiteDriver"
}

// Inc increments counters in place, one upsert per bucket.
func (d *SQLiteDriver) Inc(keys []BucketKey, values map[string]any) error {
	if len(keys) == 0 {
		return nil
	}
	if d.DB == nil {
		return fmt.Errorf("sqlite driver requires DB")
	}
	packed := Pack(values)
	if len(packed) == 0 {
		return nil
	}

	query, exprArgs, err := buildSQLiteIncQuery(d.TableName, packed)
	if err != nil {
		return err
	}
	initial, err := json.Marshal(packed)
	if err != nil {
		return err
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, key := range keys {
		args := append([]any{key.Join(d.Separator), string(initial)}, exprArgs...)
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get fetches counters for keys in order; missing buckets are empty maps.
func (d *SQLiteDriver) Get(keys []BucketKey) ([]map[string]any, error) {
	if len(keys) == 0 {
		return []map[string]any{}, nil
	}
	if d.DB == nil {
		return nil, fmt.Errorf("sqlite driver requires DB")
	}

	args := joinedKeys(keys, d.Separator)
	query := fmt.Sprintf("SELECT key, data FROM %s WHERE key IN (%s);", d.TableName,
		placeholders(len(args), func(int) string { return "?" }))
	rows, err := d.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := map[string]map[string]any{}
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		found[key] = decodePacked([]byte(data))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		results = append(results, Unpack(found[key.Join(d.Separator)]))
	}
	return results, nil
}

func buildSQLiteIncQuery(table string, packed map[string]any) (string, []any, error) {
	expr := "data"
	args := make([]any, 0, len(packed))
	for _, key := range sortedKeys(packed) {
		delta, ok := toFloat(packed[key])
		if !ok {
			return "", nil, fmt.Errorf("increment requires numeric value for key %q", key)
		}
		path := sqliteJSONPathForKey(key)
		expr = fmt.Sprintf("json_set(%s, '%s', IFNULL(json_extract(data, '%s'), 0) + ?)", expr, path, path)
		args = append(args, delta)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (key, data) VALUES (?, json(?)) ON CONFLICT (key) DO UPDATE SET data = %s;",
		table, expr,
	)
	return query, args, nil
}

// sqliteJSONPathForKey quotes the label so packed dot keys stay flat.
func sqliteJSONPathForKey(key string) string {
	escaped := strings.ReplaceAll(key, "\"", "")
	escaped = strings.ReplaceAll(escaped, "'", "''")
	return fmt.Sprintf("$.\"%s\"", escaped)
}
