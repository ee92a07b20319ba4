package measurement

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDriver stores hit counters in a JSON column.
type MySQLDriver struct {
	DB        *sql.DB
	TableName string
	Separator string
}

// NewMySQLDriver creates a MySQL driver.
func NewMySQLDriver(db *sql.DB, tableName string) *MySQLDriver {
	if tableName == "" {
		tableName = "measurement_stats"
	}
	return &MySQLDriver{
		DB:        db,
		TableName: tableName,
		Separator: "::",
	}
}

// Setup creates the table.
func (d *MySQLDriver) Setup() error {
	if d.DB == nil {
		return fmt.Errorf("mysql driver requires DB")
	}
	_, err := d.DB.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (`key` VARCHAR(255) PRIMARY KEY, `data` JSON NOT NULL);", quoteMySQLIdentifier(d.TableName)))
	return err
}

func (d *MySQLDriver) Description() string {
	return "MySQLDriver"
}

// Inc upserts each bucket, adding the deltas inside the JSON document.
func (d *MySQLDriver) Inc(keys []BucketKey, values map[string]any) error {
	if len(keys) == 0 {
		return nil
	}
	if d.DB == nil {
		return fmt.Errorf("mysql driver requires DB")
	}
	packed := Pack(values)
	if len(packed) == 0 {
		return nil
	}

	query, exprArgs, err := buildMySQLIncQuery(d.TableName, packed)
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

// Get fetches counters for keys in order.
func (d *MySQLDriver) Get(keys []BucketKey) ([]map[string]any, error) {
	if len(keys) == 0 {
		return []map[string]any{}, nil
	}
	if d.DB == nil {
		return nil, fmt.Errorf("mysql driver requires DB")
	}

	args := joinedKeys(keys, d.Separator)
	query := fmt.Sprintf("SELECT `key`, CAST(`data` AS CHAR) AS data FROM %s WHERE `key` IN (%s);",
		quoteMySQLIdentifier(d.TableName), placeholders(len(args), func(int) string { return "?" }))
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

func buildMySQLIncQuery(table string, packed map[string]any) (string, []any, error) {
	expr := "JSON_SET(COALESCE(`data`, JSON_OBJECT())"
	args := make([]any, 0, len(packed))
	for _, key := range sortedKeys(packed) {
		delta, ok := toFloat(packed[key])
		if !ok {
			return "", nil, fmt.Errorf("increment requires numeric value for key %q", key)
		}
		path := mysqlJSONPathForKey(key)
		expr += fmt.Sprintf(
			", '%s', (COALESCE(CAST(JSON_UNQUOTE(JSON_EXTRACT(COALESCE(`data`, JSON_OBJECT()), '%s')) AS DECIMAL(65,10)), 0) + CAST(? AS DECIMAL(65,10)))",
			path, path,
		)
		args = append(args, delta)
	}
	expr += ")"

	query := fmt.Sprintf(
		"INSERT INTO %s (`key`, `data`) VALUES (?, CAST(? AS JSON)) ON DUPLICATE KEY UPDATE `data` = %s;",
		quoteMySQLIdentifier(table), expr,
	)
	return query, args, nil
}

func mysqlJSONPathForKey(key string) string {
	escaped := strings.ReplaceAll(key, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "'", "''")
	return fmt.Sprintf("$.\"%s\"", escaped)
}

func quoteMySQLIdentifier(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}
