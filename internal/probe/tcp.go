package probe

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

// TCPChecker dials host:port from a tcp:// URL. An accepted connection is
// online; the connection is closed immediately, nothing is written.
type TCPChecker struct{}

func (TCPChecker) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	u, err := url.Parse(target.URL)
	if err != nil {
		return offline(target, "unparseable url")
	}

	cctx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(cctx, "tcp", u.Host)
	if err != nil {
		return offline(target, classify(err))
	}
	conn.Close()
	return online(target, time.Since(start))
}
