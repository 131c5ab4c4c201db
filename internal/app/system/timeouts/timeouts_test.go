package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	reset()
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"ping", Ping(), DefaultPing},
		{"short", Short(), DefaultShort},
		{"medium", Medium(), DefaultMedium},
		{"long", Long(), DefaultLong},
		{"sweep", Sweep(), DefaultSweep},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestConfigureFromEnv(t *testing.T) {
	reset()
	t.Cleanup(reset)

	t.Setenv("GUILDHALL_TIMEOUT_SWEEP", "2m")
	t.Setenv("GUILDHALL_TIMEOUT_PING", "not-a-duration")
	t.Setenv("GUILDHALL_TIMEOUT_LONG", "-5s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("ConfigureFromEnv() = %d, want 1", n)
	}
	if Sweep() != 2*time.Minute {
		t.Errorf("Sweep() = %v, want 2m", Sweep())
	}
	if Ping() != DefaultPing {
		t.Errorf("Ping() = %v, want default", Ping())
	}
	if Long() != DefaultLong {
		t.Errorf("Long() = %v, want default", Long())
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test op")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}
