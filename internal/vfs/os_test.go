package vfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
	return p
}

func replaceFile(ctx context.Context, t *testing.T, b *OSBackend, loc Location, opts ReplaceOptions, content string) error {
	t.Helper()
	w, err := b.Replace(context.Background(), loc, opts)
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return w.Close(ctx)
}

func TestOSBackendOpenAndQueryInfo(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "a.txt", "hello\n")
	b := NewOSBackend()
	ctx := context.Background()

	r, err := b.Open(ctx, FileLocation(p))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}

	fi, err := b.QueryInfo(ctx, FileLocation(p))
	if err != nil {
		t.Fatalf("QueryInfo() error = %v", err)
	}
	if !fi.IsRegular() || fi.Size != 6 || fi.Name != "a.txt" || !fi.Writable {
		t.Errorf("QueryInfo() = %+v", fi)
	}
	if fi.ContentType == "" {
		t.Error("ContentType is empty")
	}

	dirInfo, err := b.QueryInfo(ctx, FileLocation(dir))
	if err != nil {
		t.Fatalf("QueryInfo(dir) error = %v", err)
	}
	if dirInfo.Type != TypeDirectory {
		t.Errorf("QueryInfo(dir).Type = %v", dirInfo.Type)
	}

	if _, err := b.Open(ctx, FileLocation(filepath.Join(dir, "missing"))); !IsNotFound(err) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOSBackendReplace(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "a.txt", "old")
	b := NewOSBackend()

	if err := replaceFile(context.Background(), t, b, FileLocation(p), ReplaceOptions{}, "new"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, _ := os.ReadFile(p)
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
	info, _ := os.Stat(p)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
	if _, err := os.Stat(p + "~"); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup written without Backup option")
	}
	assertNoTempFiles(t, dir)
}

func TestOSBackendReplaceDiscard(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "a.txt", "precious")
	b := NewOSBackend()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := replaceFile(ctx, t, b, FileLocation(p), ReplaceOptions{Backup: true}, "garbage")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Close(cancelled) error = %v, want context.Canceled", err)
	}

	data, _ := os.ReadFile(p)
	if string(data) != "precious" {
		t.Errorf("content = %q, want unchanged", data)
	}
	assertNoTempFiles(t, dir)
}

func TestOSBackendBackup(t *testing.T) {
	dir := t.TempDir()
	p := writeTestFile(t, dir, "a.txt", "v1")
	b := NewOSBackend(WithBackupSuffix(".bak"))
	loc := FileLocation(p)
	ctx := context.Background()

	if err := replaceFile(ctx, t, b, loc, ReplaceOptions{Backup: true}, "v2"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(p + ".bak"); string(data) != "v1" {
		t.Errorf("backup = %q, want v1", data)
	}

	if err := replaceFile(ctx, t, b, loc, ReplaceOptions{Backup: true, PreserveBackup: true}, "v3"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(p + ".bak"); string(data) != "v1" {
		t.Errorf("preserved backup = %q, want v1", data)
	}

	if err := replaceFile(ctx, t, b, loc, ReplaceOptions{Backup: true}, "v4"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(p + ".bak"); string(data) != "v3" {
		t.Errorf("backup = %q, want v3", data)
	}
}

func TestOSBackendReplaceSymlink(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "real.txt", "old\n")
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	b := NewOSBackend()
	if err := replaceFile(context.Background(), t, b, FileLocation(link), ReplaceOptions{Backup: true}, "new\n"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Errorf("link mode = %v, want symlink", info.Mode())
	}
	if data, _ := os.ReadFile(target); string(data) != "new\n" {
		t.Errorf("target content = %q, want %q", data, "new\n")
	}
	if data, _ := os.ReadFile(target + "~"); string(data) != "old\n" {
		t.Errorf("backup = %q, want %q", data, "old\n")
	}
	if _, err := os.Lstat(link + "~"); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup created next to the link")
	}
}

func TestOSBackendReplaceNewFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "new.txt")

	if err := replaceFile(context.Background(), t, NewOSBackend(), FileLocation(p), ReplaceOptions{Backup: true}, "fresh"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(p); string(data) != "fresh" {
		t.Errorf("content = %q", data)
	}
	if _, err := os.Stat(p + "~"); !errors.Is(err, os.ErrNotExist) {
		t.Error("backup created for a new file")
	}
}

func TestOSBackendReplaceDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := NewOSBackend().Replace(context.Background(), FileLocation(dir), ReplaceOptions{})
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("Replace(dir) error = %v, want ErrNotRegularFile", err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(dir, ".*.docio-*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}
