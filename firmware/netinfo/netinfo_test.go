package netinfo

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeNetwork struct {
	stationAddr string
	stationErr  error
	apAddr      string
	apErr       error

	joinDeadline bool
	joins, aps   int
}

func (f *fakeNetwork) JoinStation(ctx context.Context, ssid, password string) (string, error) {
	f.joins++
	_, f.joinDeadline = ctx.Deadline()
	if f.stationErr != nil {
		return "", f.stationErr
	}
	return f.stationAddr, nil
}

func (f *fakeNetwork) StartAccessPoint(ssid, password string) (string, error) {
	f.aps++
	if f.apErr != nil {
		return "", f.apErr
	}
	return f.apAddr, nil
}

func TestBootstrapStation(t *testing.T) {
	n := &fakeNetwork{stationAddr: "10.0.0.7", apAddr: "192.168.4.1"}
	info, err := Bootstrap(context.Background(), n, Config{SSID: "home", APSSID: "Todo-Wrist"}, nil)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if info.Mode != Station || info.Address != "10.0.0.7" {
		t.Fatalf("info = %+v", info)
	}
	if !n.joinDeadline {
		t.Fatalf("join had no deadline")
	}
	if n.aps != 0 {
		t.Fatalf("access point started after successful join")
	}
	if info.Indicator() != "IP:" || info.Description() != "Connected to WiFi" {
		t.Fatalf("labels = %q %q", info.Indicator(), info.Description())
	}
}

func TestBootstrapFallsBackToAccessPoint(t *testing.T) {
	n := &fakeNetwork{stationErr: context.DeadlineExceeded, apAddr: "192.168.4.1"}
	info, err := Bootstrap(context.Background(), n, Config{SSID: "home", APSSID: "Todo-Wrist", JoinTimeout: time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	want := ConnectionInfo{Mode: AccessPoint, Address: "192.168.4.1", SSID: "Todo-Wrist"}
	if info != want {
		t.Fatalf("info = %+v, want %+v", info, want)
	}
	if info.URL() != "http://192.168.4.1" {
		t.Fatalf("URL = %q", info.URL())
	}
	if info.Indicator() != "AP:" || info.Description() != "SSID: Todo-Wrist" {
		t.Fatalf("labels = %q %q", info.Indicator(), info.Description())
	}
}

func TestBootstrapNoSSIDSkipsJoin(t *testing.T) {
	n := &fakeNetwork{apAddr: "192.168.4.1"}
	if _, err := Bootstrap(context.Background(), n, Config{APSSID: "Todo-Wrist"}, nil); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if n.joins != 0 {
		t.Fatalf("joined without an ssid")
	}
}

func TestBootstrapNoLink(t *testing.T) {
	n := &fakeNetwork{stationErr: errors.New("no beacon"), apErr: errors.New("radio off")}
	info, err := Bootstrap(context.Background(), n, Config{SSID: "home", APSSID: "Todo-Wrist"}, nil)
	if !errors.Is(err, ErrNoLink) {
		t.Fatalf("err = %v, want ErrNoLink", err)
	}
	if info.Mode != Offline {
		t.Fatalf("mode = %v", info.Mode)
	}
}
