package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errStage = errors.New("stage error")

func TestSel(t *testing.T) {
	// check normal operation
	f1 := func() error {
		return errStage
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := Sel(ctx, f1); err != errStage {
		t.Errorf("expected %v, got %v", errStage, err)
	}

	// nil error goes through untouched
	if err := Sel(ctx, func() error { return nil }); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	// check context canceled
	cancel()
	if err := Sel(ctx, func() error { time.Sleep(time.Second); return nil }); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	// check deadline exceeded
	f2 := func() error {
		time.Sleep(time.Second)
		return nil
	}
	ctx, cancel = context.WithTimeout(context.Background(), time.Second/10)
	defer cancel()
	if err := Sel(ctx, f2); err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
