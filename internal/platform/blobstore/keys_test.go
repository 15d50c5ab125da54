package blobstore

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateKey(t *testing.T) {
	ok := []string{"a", "project_1/task_2/x.pdf"}
	for _, k := range ok {
		if err := ValidateKey(k); err != nil {
			t.Fatalf("ValidateKey(%q): %v", k, err)
		}
	}
	bad := []string{"", "/abs", "../x", "a/../../b", "a//b", "a/./b", `a\b`, " a", "a/"}
	for _, k := range bad {
		if err := ValidateKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("ValidateKey(%q): want ErrInvalidKey got=%v", k, err)
		}
	}
}

func TestSafeExtension(t *testing.T) {
	cases := map[string]string{
		"spec.PDF":         ".pdf",
		"../../etc/passwd": "",
		"archive.tar.gz":   ".gz",
		"noext":            "",
		"weird.p/d":        "",
		"evil.p df":        "",
		".hidden":          ".hidden",
	}
	for in, want := range cases {
		if got := SafeExtension(in); got != want {
			t.Fatalf("SafeExtension(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestAttachmentKeyShape(t *testing.T) {
	p, tk := uuid.New(), uuid.New()
	k1 := AttachmentKey(p, tk, "../../etc/passwd")
	k2 := AttachmentKey(p, tk, "../../etc/passwd")
	if k1 == k2 {
		t.Fatalf("keys must be unique: %q", k1)
	}
	prefix := "project_" + p.String() + "/task_" + tk.String() + "/"
	if !strings.HasPrefix(k1, prefix) {
		t.Fatalf("prefix: want=%q got=%q", prefix, k1)
	}
	if strings.Contains(k1, "..") || strings.Contains(k1, "passwd") {
		t.Fatalf("key leaks client name: %q", k1)
	}
	if err := ValidateKey(k1); err != nil {
		t.Fatalf("ValidateKey(%q): %v", k1, err)
	}
}
