package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 2

	// UserAgent 是对 AI 服务发出的请求默认携带的 UA。
	UserAgent = "afo (AI File Organizer)"
)

// Transport 把"默认 UA + 有界重试"固化为统一策略。
//
// suggest 只负责组 prompt / 解析回复，不关心网络策略细节。
type Transport struct {
	Base http.RoundTripper

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int

	// RetryBackoff 是两次尝试之间的等待（按尝试次数线性增长）。
	RetryBackoff time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对可重放的请求做重试：无 body，或 body 可通过 GetBody 重新获取。
	canRetry := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 && t.RetryBackoff > 0 {
			select {
			case <-req.Context().Done():
				return nil, lastErr
			case <-time.After(time.Duration(attempt) * t.RetryBackoff):
			}
		}

		r, err := cloneRequest(req, attempt)
		if err != nil {
			return nil, err
		}
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", UserAgent)
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			if retryableStatus(resp.StatusCode) && attempt < max {
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
				continue
			}
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func cloneRequest(req *http.Request, attempt int) (*http.Request, error) {
	// Clone 会复制 Header 等，避免在 RoundTripper 内部"污染"调用方的 request。
	r := req.Clone(req.Context())
	if attempt > 0 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	return r, nil
}

// NewAIClient 构造访问 AI 服务用的 HTTP client。
//
// 规则：
// - proxyURL 非空：所有请求走该代理（http/https/socks5）
// - timeout <= 0 时使用默认总超时
// - 网络错误与 429/502/503/504 有界重试
func NewAIClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("代理地址无效：%q", proxyURL)
		}
		base.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Transport: &Transport{
			Base:         base,
			RetryMax:     defaultRetryMax,
			RetryBackoff: 500 * time.Millisecond,
		},
		Timeout: timeout,
	}, nil
}
