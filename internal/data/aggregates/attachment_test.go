package aggregates_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	aggtest "github.com/yungbote/taskmaster-backend/internal/data/aggregates/testutil"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
)

func TestAttachmentTraversalNameNeverReachesKey(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")

	body := "root:x:0:0:root:/root:/bin/sh\n"
	att := h.upload(t, alice, tk, "../../etc/passwd", body)

	prefix := blobstore.TaskPrefix(p.ID, tk.ID)
	if !strings.HasPrefix(att.StorageKey, prefix) {
		t.Fatalf("key prefix: want=%q got=%q", prefix, att.StorageKey)
	}
	leaf := strings.TrimPrefix(att.StorageKey, prefix)
	if strings.Contains(leaf, "/") || strings.Contains(leaf, "..") || strings.Contains(leaf, "passwd") {
		t.Fatalf("key leaf derived from client name: %q", leaf)
	}
	if err := blobstore.ValidateKey(att.StorageKey); err != nil {
		t.Fatalf("ValidateKey(%q): %v", att.StorageKey, err)
	}
	if att.FileName != "../../etc/passwd" || att.SizeBytes != int64(len(body)) {
		t.Fatalf("record: got name=%q size=%d", att.FileName, att.SizeBytes)
	}

	loaded, err := h.attachments.Load(h.ctx, alice.ID, att.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := readAll(t, loaded.Body); got != body {
		t.Fatalf("body: want=%q got=%q", body, got)
	}
	if loaded.Attachment.FileName != "../../etc/passwd" || loaded.Attachment.ContentType != "text/plain" {
		t.Fatalf("loaded record: got=%+v", loaded.Attachment)
	}
}

func TestAttachmentKeepsSafeExtension(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")

	att := h.upload(t, alice, tk, "Report.PDF", "%PDF")
	if !strings.HasSuffix(att.StorageKey, ".pdf") {
		t.Fatalf("extension: got key=%q", att.StorageKey)
	}
	odd := h.upload(t, alice, tk, "x.tar;rm -rf", "data")
	if strings.Contains(odd.StorageKey, ";") || strings.Contains(odd.StorageKey, " ") {
		t.Fatalf("unsafe extension kept: %q", odd.StorageKey)
	}
}

func TestAttachmentStoreRejectsEmptyAndOversize(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")

	cases := []struct {
		name string
		body string
		size int64
	}{
		{"declared empty", "", 0},
		{"unknown size empty", "", -1},
		{"declared oversize", strings.Repeat("x", 65), 65},
		{"unknown size oversize", strings.Repeat("x", 100), -1},
		{"understated size", strings.Repeat("x", 100), 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.attachments.Store(h.ctx, domainagg.StoreAttachmentInput{
				ActorID: alice.ID, TaskID: tk.ID, Content: strings.NewReader(tc.body),
				Size: tc.size, OriginalName: "f.txt",
			})
			wantCode(t, err, domainagg.CodeValidation)
		})
	}
	if keys := h.blobKeys(t); len(keys) != 0 {
		t.Fatalf("blobs after rejected uploads: %v", keys)
	}
	if n := h.count(t, &types.Attachment{}, ""); n != 0 {
		t.Fatalf("records after rejected uploads: %d", n)
	}
}

func TestAttachmentStoreBlobFailureLeavesNoRecord(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")

	h.blobs.setFailPut(true)
	_, err := h.attachments.Store(h.ctx, domainagg.StoreAttachmentInput{
		ActorID: alice.ID, TaskID: tk.ID, Content: strings.NewReader("abc"), Size: 3, OriginalName: "a.txt",
	})
	wantCode(t, err, domainagg.CodeStorage)
	if n := h.count(t, &types.Attachment{}, ""); n != 0 {
		t.Fatalf("records after storage fault: %d", n)
	}
}

func TestAttachmentStoreCompensatesFailedCommit(t *testing.T) {
	runner := &aggtest.InjectedTxRunner{}
	h := newHarness(t, withInjectedRunner(runner))
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")

	runner.FailCommit = errors.New("commit lost")
	_, err := h.attachments.Store(h.ctx, domainagg.StoreAttachmentInput{
		ActorID: alice.ID, TaskID: tk.ID, Content: strings.NewReader("abc"), Size: 3, OriginalName: "a.txt",
	})
	if err == nil {
		t.Fatalf("expected error from failed commit")
	}
	runner.FailCommit = nil

	if keys := h.blobKeys(t); len(keys) != 0 {
		t.Fatalf("blob survived failed commit: %v", keys)
	}
	if got := h.blobs.deletedKeys(); len(got) != 1 {
		t.Fatalf("compensating deletes: want=1 got=%v", got)
	}
	if n := h.count(t, &types.Attachment{}, ""); n != 0 {
		t.Fatalf("record survived rolled back commit: %d", n)
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollbacks: want=1 got=%d", runner.RollbackCalls)
	}
	ops := h.hooks.Operations()
	last := ops[len(ops)-1]
	if last.Name != "Tracker.Attachment.Store" || last.Status != string(domainagg.CodeInternal) {
		t.Fatalf("last op: got=%+v", last)
	}
}

func TestAttachmentDeleteRights(t *testing.T) {
	h := newHarness(t)
	alice, bob, carol := h.user(t, "alice"), h.user(t, "bob"), h.user(t, "carol")
	p := h.project(t, alice, "Roadmap", bob, carol)
	tk := h.task(t, alice, p, "t")
	first := h.upload(t, bob, tk, "a.txt", "a")
	second := h.upload(t, bob, tk, "b.txt", "b")

	_, err := h.attachments.Delete(h.ctx, domainagg.DeleteAttachmentInput{ActorID: carol.ID, AttachmentID: first.ID})
	wantCode(t, err, domainagg.CodeForbidden)

	res, err := h.attachments.Delete(h.ctx, domainagg.DeleteAttachmentInput{ActorID: bob.ID, AttachmentID: first.ID})
	if err != nil || !res.BlobDeleted {
		t.Fatalf("uploader delete: got=%+v err=%v", res, err)
	}
	res, err = h.attachments.Delete(h.ctx, domainagg.DeleteAttachmentInput{ActorID: alice.ID, AttachmentID: second.ID})
	if err != nil || !res.BlobDeleted {
		t.Fatalf("owner delete: got=%+v err=%v", res, err)
	}
	if keys := h.blobKeys(t); len(keys) != 0 {
		t.Fatalf("blobs left: %v", keys)
	}
	list, err := h.attachments.ListForTask(h.ctx, carol.ID, tk.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("ListForTask: got=%v err=%v", list, err)
	}
}

func TestAttachmentDeleteRemovesRecordWhenBlobDeleteFails(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")
	att := h.upload(t, alice, tk, "a.txt", "abc")

	h.blobs.setFailDelete(true)
	res, err := h.attachments.Delete(h.ctx, domainagg.DeleteAttachmentInput{ActorID: alice.ID, AttachmentID: att.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.BlobDeleted {
		t.Fatalf("BlobDeleted: want=false")
	}
	if n := h.count(t, &types.Attachment{}, ""); n != 0 {
		t.Fatalf("record left: %d", n)
	}
	if n := h.count(t, &types.ActivityEntry{}, "kind = ? AND subject_id = ?", types.ActivityAttachmentBlobDeleteFail, att.ID); n != 1 {
		t.Fatalf("blob failure audit: want=1 got=%d", n)
	}
	if keys := h.blobKeys(t); len(keys) != 1 || keys[0] != att.StorageKey {
		t.Fatalf("orphan blob: got=%v", keys)
	}
}

func TestAttachmentLoadMissingBlobIsNotFound(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")
	att := h.upload(t, alice, tk, "a.txt", "abc")

	local := h.blobs.Store.(*blobstore.LocalStore)
	full, err := local.Resolve(att.StorageKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := os.Remove(full); err != nil {
		t.Fatalf("remove blob: %v", err)
	}
	_, err = h.attachments.Load(h.ctx, alice.ID, att.ID)
	wantCode(t, err, domainagg.CodeNotFound)
}

func TestAttachmentStreamsUnknownSize(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice")
	p := h.project(t, alice, "Roadmap")
	tk := h.task(t, alice, p, "t")

	body := bytes.Repeat([]byte("z"), 64)
	att, err := h.attachments.Store(h.ctx, domainagg.StoreAttachmentInput{
		ActorID: alice.ID, TaskID: tk.ID, Content: bytes.NewReader(body), Size: -1, OriginalName: "",
	})
	if err != nil {
		t.Fatalf("Store at limit: %v", err)
	}
	if att.SizeBytes != 64 || att.FileName != "file" || att.ContentType != "application/octet-stream" {
		t.Fatalf("record: got=%+v", att)
	}
}
