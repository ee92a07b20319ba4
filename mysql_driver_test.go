package measurement

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMySQLDriver_SetupCreatesTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	driver := NewMySQLDriver(db, "test_stats")
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `test_stats` .*`key` VARCHAR\\(255\\) PRIMARY KEY").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := driver.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLDriver_Description(t *testing.T) {
	driver := NewMySQLDriver(nil, "")
	if got := driver.Description(); got != "MySQLDriver" {
		t.Fatalf("unexpected description: %s", got)
	}
	if driver.TableName != "measurement_stats" {
		t.Fatalf("unexpected default table %q", driver.TableName)
	}
}

func TestMySQLDriver_IncUpsertsEachBucket(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	driver := NewMySQLDriver(db, "test_stats")
	hour := time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	keys := []BucketKey{
		{Key: "hits::UA-1-1", Granularity: "1h", At: &hour},
		{Key: "hits::UA-1-1", Granularity: "1d", At: &day},
	}

	upsert := regexp.QuoteMeta("INSERT INTO `test_stats` (`key`, `data`) VALUES (?, CAST(? AS JSON)) ON DUPLICATE KEY UPDATE `data` = JSON_SET(")
	mock.ExpectBegin()
	for _, key := range keys {
		mock.ExpectExec(upsert).
			WithArgs(key.Join("::"), jsonArgMatcher{validate: func(data map[string]any) bool {
				return data["count"] == float64(1)
			}}, 1.0).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	if err := driver.Inc(keys, map[string]any{"count": 1}); err != nil {
		t.Fatalf("inc failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLDriver_GetKeepsKeyOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	defer db.Close()

	driver := NewMySQLDriver(db, "test_stats")
	first := time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	keys := []BucketKey{
		{Key: "hits::UA-1-1", Granularity: "1h", At: &first},
		{Key: "hits::UA-1-1", Granularity: "1h", At: &second},
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `key`, CAST(`data` AS CHAR) AS data FROM `test_stats` WHERE `key` IN (?, ?);")).
		WithArgs(keys[0].Join("::"), keys[1].Join("::")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "data"}).
			AddRow(keys[1].Join("::"), `{"count": 4, "outcome.2xx": 3, "outcome.error": 1}`))

	got, err := driver.Get(keys)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two rows, got %d", len(got))
	}
	if len(got[0]) != 0 {
		t.Fatalf("expected empty first bucket, got %+v", got[0])
	}
	if Counter(got[1], "count") != 4 || Counter(got[1], "outcome.2xx") != 3 || Counter(got[1], "outcome.error") != 1 {
		t.Fatalf("unexpected second bucket: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBuildMySQLIncQuery(t *testing.T) {
	query, args, err := buildMySQLIncQuery("stats", map[string]any{"types.event": 1, "bytes": 120})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(query, `'$."types.event"'`) {
		t.Fatalf("expected quoted JSON path, got %s", query)
	}
	if len(args) != 2 || args[0] != 120.0 || args[1] != 1.0 {
		t.Fatalf("expected deltas in sorted key order, got %#v", args)
	}
	if _, _, err := buildMySQLIncQuery("stats", map[string]any{"status": "ok"}); err == nil {
		t.Fatalf("expected non-numeric increment error")
	}
}

func TestMySQLIdentifierQuoting(t *testing.T) {
	if got := quoteMySQLIdentifier("odd`name"); got != "`odd``name`" {
		t.Fatalf("unexpected quoting: %s", got)
	}
	if got := mysqlJSONPathForKey(`a"b`); got != `$."a\"b"` {
		t.Fatalf("unexpected path: %s", got)
	}
}
