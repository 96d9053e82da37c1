package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

const userAgent = "netwatch-probe/1.0"

// HTTPChecker issues a single GET. Any completed response means online, no
// matter the status code: the question is whether a connection can be
// established, not whether the service is healthy, so a 500 or an opaque
// proxy error still proves reachability. The status code is recorded for
// display.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker uses a shared client without a global timeout; each request
// is bounded by the target's own timeout through its context.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{Client: &http.Client{}}
}

func (h *HTTPChecker) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	cctx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return offline(target, "invalid request: "+err.Error())
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return offline(target, classify(err))
	}
	resp.Body.Close()

	res := online(target, time.Since(start))
	code := resp.StatusCode
	res.StatusCode = &code
	return res
}
