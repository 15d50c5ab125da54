package logger

import "testing"

func TestRedactorMasksSecretsAndTokens(t *testing.T) {
	r := &redactor{enabled: true}
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	got := r.kvs([]interface{}{"password", "hunter2", "Authorization", "Bearer x", "note", jwt, "project_id", "p1"})
	if got[1] != redacted {
		t.Fatalf("password: want=%q got=%v", redacted, got[1])
	}
	if got[3] != redacted {
		t.Fatalf("authorization: want=%q got=%v", redacted, got[3])
	}
	if got[5] != redacted {
		t.Fatalf("jwt value: want=%q got=%v", redacted, got[5])
	}
	if got[7] != "p1" {
		t.Fatalf("project_id: want=%q got=%v", "p1", got[7])
	}
}

func TestRedactorHashesIDsOnlyWithSalt(t *testing.T) {
	plain := &redactor{enabled: true}
	if got := plain.kvs([]interface{}{"actor_id", "abc"}); got[1] != "abc" {
		t.Fatalf("unsalted actor_id: want=%q got=%v", "abc", got[1])
	}
	salted := &redactor{enabled: true, salt: "s"}
	got := salted.kvs([]interface{}{"actor_id", "abc"})
	s, _ := got[1].(string)
	if len(s) != len("hash:")+12 {
		t.Fatalf("salted actor_id: want hashed value got=%v", got[1])
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := &redactor{enabled: false}
	got := r.kvs([]interface{}{"password", "x"})
	if got[1] != "x" {
		t.Fatalf("disabled: want=%q got=%v", "x", got[1])
	}
}

func TestRedactorKeepsTrailingKey(t *testing.T) {
	r := &redactor{enabled: true}
	got := r.kvs([]interface{}{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("dangling key: got=%v", got)
	}
}
