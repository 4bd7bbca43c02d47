package db

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/pkg/logger"
)

func openLogged(t *testing.T, slow time.Duration) (*gorm.DB, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: &buf})
	cfg := GormConfig()
	cfg.Logger = newQueryLogger(logg, slow)
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	buf.Reset()
	return conn, &buf
}

func TestQueryLoggerReportsFailuresNotMisses(t *testing.T) {
	conn, buf := openLogged(t, 0)

	var row testModel
	if err := conn.First(&row, "name = ?", "missing").Error; err == nil {
		t.Fatal("expected record not found")
	}
	if buf.Len() != 0 {
		t.Fatalf("record-not-found should not be logged: %s", buf.String())
	}

	if err := conn.Exec("SELECT * FROM no_such_table").Error; err == nil {
		t.Fatal("expected query error")
	}
	out := buf.String()
	if !strings.Contains(out, "query failed") || !strings.Contains(out, "no_such_table") {
		t.Fatalf("expected failed query log with sql, got %s", out)
	}
}

func TestQueryLoggerReportsSlowQueries(t *testing.T) {
	conn, buf := openLogged(t, time.Nanosecond)

	if err := conn.Create(&testModel{Name: "n64"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !strings.Contains(buf.String(), "slow query") {
		t.Fatalf("expected slow query log, got %s", buf.String())
	}

	buf.Reset()
	silent := conn.Session(&gorm.Session{Logger: newQueryLogger(nil, time.Nanosecond)})
	if err := silent.Create(&testModel{Name: "snes"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("discard logger should not write: %s", buf.String())
	}
}
