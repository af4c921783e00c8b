package tunnel

import "testing"

func TestNewStartsDisconnected(t *testing.T) {
	svc := New()
	info := svc.GetStatus()
	if info.Status != StatusDisconnected {
		t.Fatalf("status = %v, want %v", info.Status, StatusDisconnected)
	}
}

func TestStopWithoutStartReturnsNotConnected(t *testing.T) {
	svc := New()
	if err := svc.Stop(); err != ErrNotConnected {
		t.Fatalf("Stop() = %v, want %v", err, ErrNotConnected)
	}
}

func TestStartTwiceReturnsAlreadyRunning(t *testing.T) {
	svc := New()
	defer svc.Stop()

	if err := svc.Start("fake-token", 3000); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := svc.Start("fake-token", 3000); err != ErrAlreadyRunning {
		t.Fatalf("second Start = %v, want %v", err, ErrAlreadyRunning)
	}
}

func TestStartRecordsLocalURL(t *testing.T) {
	svc := New()
	defer svc.Stop()

	if err := svc.Start("fake-token", 8080); err != nil {
		t.Fatalf("Start: %v", err)
	}
	info := svc.GetStatus()
	if info.LocalURL != "http://127.0.0.1:8080" {
		t.Fatalf("LocalURL = %q", info.LocalURL)
	}
}
