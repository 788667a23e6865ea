package theme

import (
	"sync"
	"testing"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

func waitSettled(t *testing.T, s *Switch) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !s.Snapshot().Transitioning {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("transition did not settle")
}

func TestToggleTwiceRestoresMode(t *testing.T) {
	s := NewSwitch(enums.ThemeModeGold, WithDelay(20*time.Millisecond))
	defer s.Close()

	snap := s.ToggleTheme()
	if snap.Mode != enums.ThemeModeSilver || !snap.Transitioning {
		t.Fatalf("unexpected snapshot after first toggle %+v", snap)
	}
	waitSettled(t, s)

	snap = s.ToggleTheme()
	if snap.Mode != enums.ThemeModeGold || !snap.Transitioning {
		t.Fatalf("unexpected snapshot after second toggle %+v", snap)
	}
	waitSettled(t, s)

	if got := s.Mode(); got != enums.ThemeModeGold {
		t.Fatalf("expected gold, got %s", got)
	}
}

func TestSetSameThemeIsNoop(t *testing.T) {
	s := NewSwitch(enums.ThemeModeSilver)
	defer s.Close()

	calls := 0
	s.Subscribe(func(Snapshot) { calls++ })

	snap := s.SetTheme(enums.ThemeModeSilver)
	if snap.Transitioning {
		t.Fatalf("no-op set should not start a transition")
	}
	if calls != 0 {
		t.Fatalf("expected no notifications, got %d", calls)
	}
}

func TestRapidTogglesKeepLatestTimer(t *testing.T) {
	s := NewSwitch(enums.ThemeModeGold, WithDelay(40*time.Millisecond))
	defer s.Close()

	s.ToggleTheme()
	time.Sleep(25 * time.Millisecond)
	s.ToggleTheme()
	time.Sleep(25 * time.Millisecond)

	if !s.Snapshot().Transitioning {
		t.Fatalf("second transition was cleared by the first timer")
	}
	waitSettled(t, s)
}

func TestSubscribersSeeTransitionEnd(t *testing.T) {
	s := NewSwitch(enums.ThemeModeGold, WithDelay(10*time.Millisecond))
	defer s.Close()

	var mu sync.Mutex
	var seen []Snapshot
	done := make(chan struct{})
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, snap)
		if !snap.Transitioning {
			close(done)
		}
	})

	s.SetTheme(enums.ThemeModeSilver)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("transition end not observed")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || !seen[0].Transitioning || seen[1].Mode != enums.ThemeModeSilver {
		t.Fatalf("unexpected notifications %+v", seen)
	}
}

func TestInvalidInitialDefaultsToGold(t *testing.T) {
	s := NewSwitch("bronze")
	if s.Mode() != enums.ThemeModeGold {
		t.Fatalf("expected gold default, got %s", s.Mode())
	}
}
