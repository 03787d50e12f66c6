package vfs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

type staticMount struct {
	user string
	err  error
}

func (s staticMount) AskPassword(ctx context.Context, loc Location, message string) (string, string, error) {
	return s.user, "secret", s.err
}

func TestMemBackendMount(t *testing.T) {
	m := NewMemBackend()
	m.SetFile("/a.txt", []byte("x"))
	m.SetMounted(false)
	loc := MustParseLocation("mem:///a.txt")
	ctx := context.Background()

	if _, err := m.Open(ctx, loc); !IsNotMounted(err) {
		t.Fatalf("Open() error = %v, want ErrNotMounted", err)
	}
	if err := m.Mount(ctx, loc, staticMount{user: "alice"}); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if m.MountCalls() != 1 || m.MountUser() != "alice" {
		t.Errorf("MountCalls() = %d, MountUser() = %q", m.MountCalls(), m.MountUser())
	}
	if _, err := m.Open(ctx, loc); err != nil {
		t.Errorf("Open() after Mount error = %v", err)
	}

	boom := errors.New("no route to host")
	m.SetMounted(false)
	m.SetMountError(boom)
	if err := m.Mount(ctx, loc, nil); !errors.Is(err, boom) {
		t.Errorf("Mount() error = %v, want %v", err, boom)
	}
}

func TestMemBackendReplace(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewMemBackend(WithClock(func() time.Time { return now }), WithMaxWrite(3))
	m.SetFile("/a.txt", []byte("old"))
	loc := MustParseLocation("mem:///a.txt")
	ctx := context.Background()

	w, err := m.Replace(ctx, loc, ReplaceOptions{Backup: true})
	if err != nil {
		t.Fatal(err)
	}
	n, err := w.Write([]byte("hello"))
	if err != nil || n != 3 {
		t.Fatalf("Write() = %d, %v; want a short write of 3", n, err)
	}
	if _, err := FullWriter(w).Write([]byte("lo")); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.File("/a.txt"); string(got) != "old" {
		t.Errorf("content visible before commit: %q", got)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.File("/a.txt"); string(got) != "hello" {
		t.Errorf("content = %q, want hello", got)
	}
	if got, _ := m.File("/a.txt~"); string(got) != "old" {
		t.Errorf("backup = %q, want old", got)
	}
	fi, err := m.QueryInfo(ctx, loc)
	if err != nil || !fi.ModTime.Equal(now) {
		t.Errorf("QueryInfo() = %+v, %v", fi, err)
	}
}

func TestMemBackendFailWrites(t *testing.T) {
	m := NewMemBackend()
	m.SetFile("/a.txt", []byte("keep"))
	boom := errors.New("disk full")
	m.FailWritesAfter(4, boom)
	loc := MustParseLocation("mem:///a.txt")

	w, err := m.Replace(context.Background(), loc, ReplaceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	n, err := w.Write([]byte("abcdef"))
	if n != 4 || !errors.Is(err, boom) {
		t.Errorf("Write() = %d, %v; want 4, %v", n, err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Close(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Close() error = %v", err)
	}
	if got, _ := m.File("/a.txt"); string(got) != "keep" {
		t.Errorf("content = %q, want keep", got)
	}
}

func TestMemBackendOpenSnapshot(t *testing.T) {
	m := NewMemBackend()
	m.SetFile("/a.txt", []byte("one"))
	m.AddDir("/dir")
	ctx := context.Background()

	r, err := m.Open(ctx, MustParseLocation("mem:///a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	m.SetFile("/a.txt", []byte("two"))
	data, _ := io.ReadAll(r)
	if string(data) != "one" {
		t.Errorf("reader saw %q, want snapshot", data)
	}

	if _, err := m.Open(ctx, MustParseLocation("mem:///dir")); !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("Open(dir) error = %v", err)
	}
	fi, err := m.QueryInfo(ctx, MustParseLocation("mem:///dir"))
	if err != nil || fi.IsRegular() {
		t.Errorf("QueryInfo(dir) = %+v, %v", fi, err)
	}
}
