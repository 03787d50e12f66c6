package async

import (
	"errors"
	"testing"
	"time"
)

func runWithTimeout(t *testing.T, l *Loop) error {
	t.Helper()
	result := make(chan error, 1)
	go func() {
		result <- l.Run()
	}()
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		l.Quit()
		t.Fatal("loop did not stop within timeout")
		return nil
	}
}

func TestLoopOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	for i := 1; i <= 5; i++ {
		l.Post(func() {
			got = append(got, i)
		})
	}
	l.Post(l.Quit)

	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("ran %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ran %v, want %v", got, want)
			break
		}
	}
	if n := l.Executed(); n != 6 {
		t.Errorf("Executed() = %d, want 6", n)
	}
}

func TestLoopQuitDropsQueued(t *testing.T) {
	l := NewLoop()
	ran := false
	l.Post(l.Quit)
	l.Post(func() { ran = true })

	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ran {
		t.Error("function posted after Quit ran")
	}
}

func TestLoopRunAfterQuit(t *testing.T) {
	l := NewLoop()
	l.Quit()
	l.Quit()
	if err := l.Run(); !errors.Is(err, ErrStopped) {
		t.Errorf("Run() error = %v, want ErrStopped", err)
	}
}

func TestLoopAlreadyRunning(t *testing.T) {
	l := NewLoop()
	started := make(chan struct{})
	l.Post(func() { close(started) })

	result := make(chan error, 1)
	go func() {
		result <- l.Run()
	}()
	<-started

	if err := l.Run(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Run() error = %v, want ErrAlreadyRunning", err)
	}
	l.Quit()
	if err := <-result; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestGo(t *testing.T) {
	l := NewLoop()
	var steps []string
	Go(l, func() (int, error) {
		return 42, nil
	}, func(v int, err error) {
		steps = append(steps, "first")
		if v != 42 || err != nil {
			t.Errorf("done(%d, %v), want (42, nil)", v, err)
		}
		Go(l, func() (string, error) {
			return "", errors.New("boom")
		}, func(_ string, err error) {
			steps = append(steps, "second")
			if err == nil || err.Error() != "boom" {
				t.Errorf("done error = %v, want boom", err)
			}
			l.Quit()
		})
	})

	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(steps) != 2 {
		t.Errorf("steps = %v, want [first second]", steps)
	}
	if n := l.InFlight(); n != 0 {
		t.Errorf("InFlight() = %d, want 0", n)
	}
}

func TestGoPanic(t *testing.T) {
	l := NewLoop()
	var got error
	Go(l, func() (int, error) {
		panic("bad step")
	}, func(_ int, err error) {
		got = err
		l.Quit()
	})

	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !errors.Is(got, ErrPanic) {
		t.Errorf("done error = %v, want ErrPanic", got)
	}
}

func TestLoopPanicHandler(t *testing.T) {
	var recovered any
	l := NewLoop(WithPanicHandler(func(r any, stack []byte) {
		recovered = r
	}))
	l.Post(func() { panic("in loop") })
	l.Post(l.Quit)

	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if recovered != "in loop" {
		t.Errorf("recovered = %v, want %q", recovered, "in loop")
	}
}
