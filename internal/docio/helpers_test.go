package docio

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/vfs"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// memEnv is a MemBackend registered for the file scheme and for a remote
// "sftp" scheme.
type memEnv struct {
	mem *vfs.MemBackend
	reg *vfs.Registry
}

func newMemEnv(opts ...vfs.MemOption) *memEnv {
	opts = append([]vfs.MemOption{vfs.WithClock(func() time.Time { return epoch })}, opts...)
	m := vfs.NewMemBackend(opts...)
	reg := vfs.NewRegistry()
	reg.Register(vfs.SchemeFile, m)
	reg.Register("sftp", m)
	return &memEnv{mem: m, reg: reg}
}

func (e *memEnv) options(opts ...Option) []Option {
	return append([]Option{WithRegistry(e.reg)}, opts...)
}

func lookup(t *testing.T, name string) *charset.Encoding {
	t.Helper()
	enc, err := charset.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) error = %v", name, err)
	}
	return enc
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type staticMount struct {
	user string
}

func (m staticMount) AskPassword(ctx context.Context, loc vfs.Location, message string) (string, string, error) {
	return m.user, "secret", nil
}
