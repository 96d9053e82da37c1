package probe

import (
	"context"
	"net/url"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/hamed0406/netwatch/internal/domain"
)

// PingChecker sends one ICMP echo to the host of an icmp:// URL. Privileged
// selects raw sockets (needs root or CAP_NET_RAW); the unprivileged default
// uses UDP ping, which on Linux requires net.ipv4.ping_group_range to cover
// the daemon's gid.
type PingChecker struct {
	Privileged bool
}

func (p PingChecker) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	u, err := url.Parse(target.URL)
	if err != nil {
		return offline(target, "unparseable url")
	}

	pinger, err := probing.NewPinger(u.Hostname())
	if err != nil {
		return offline(target, "resolve: "+err.Error())
	}
	pinger.SetPrivileged(p.Privileged)
	pinger.Count = 1
	pinger.Timeout = target.Timeout

	cctx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()
	if err := pinger.RunWithContext(cctx); err != nil {
		return offline(target, classify(err))
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return offline(target, "no echo reply")
	}
	return online(target, stats.AvgRtt)
}
