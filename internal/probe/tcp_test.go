package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

func TestTCPChecker_Online(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	tg := domain.Target{Name: "db", URL: "tcp://" + ln.Addr().String(), Enabled: true, Timeout: time.Second}
	res := TCPChecker{}.Check(context.Background(), tg)
	if !res.Online() {
		t.Fatalf("want online, got %+v", res)
	}
	if res.LatencyMS == nil {
		t.Fatalf("latency should be set for online results")
	}
}

func TestTCPChecker_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	tg := domain.Target{Name: "db", URL: "tcp://" + addr, Enabled: true, Timeout: time.Second}
	res := TCPChecker{}.Check(context.Background(), tg)
	if res.Online() {
		t.Fatalf("want offline, got %+v", res)
	}
	if res.Reason != "connection_refused" {
		t.Fatalf("reason: want connection_refused, got %q", res.Reason)
	}
}
