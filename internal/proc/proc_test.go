package proc

import (
	"context"
	"errors"
	"testing"
)

func table(ps ...Process) Lister {
	return ListerFunc(func() ([]Process, error) { return ps, nil })
}

func TestFindIgnoresCase(t *testing.T) {
	l := table(Process{1, "explorer.exe"}, Process{2, "LogonUI.exe"}, Process{3, "logonui.EXE"})
	ps, err := Find(l, "LogonUI.exe")
	if err != nil || len(ps) != 2 {
		t.Fatalf("find = %v, %v", ps, err)
	}
}

func TestLockDetector(t *testing.T) {
	ctx := context.Background()
	d := LockDetector{Process: "LogonUI.exe", Lister: table(Process{1, "explorer.exe"})}
	if locked, err := d.Locked(ctx); err != nil || locked {
		t.Fatalf("unlocked session reported %v, %v", locked, err)
	}
	d.Lister = table(Process{7, "LogonUI.exe"})
	if locked, err := d.Locked(ctx); err != nil || !locked {
		t.Fatalf("locked session reported %v, %v", locked, err)
	}

	boom := errors.New("snapshot failed")
	d.Lister = ListerFunc(func() ([]Process, error) { return nil, boom })
	if _, err := d.Locked(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected lister error, got %v", err)
	}
}
