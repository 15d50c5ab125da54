package db

import (
	"strings"
	"testing"
)

func TestPostgresConfigDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "tm", Password: "p@ss/word", Name: "taskmaster"}
	dsn := cfg.DSN()
	if !strings.HasPrefix(dsn, "postgres://tm:") {
		t.Fatalf("dsn prefix: got=%q", dsn)
	}
	if !strings.Contains(dsn, "@db:5432/taskmaster?sslmode=disable") {
		t.Fatalf("dsn host/db: got=%q", dsn)
	}
	if strings.Contains(dsn, "p@ss/word") {
		t.Fatalf("password must be escaped: got=%q", dsn)
	}
}
