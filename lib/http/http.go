package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/AndreyBeserra/Helppybot/lib/tracer"
)

// TracedHttpClient opens a span for every Bot API request and every dial.
// The bot token is masked in span names.
func TracedHttpClient(ctx context.Context, botToken string) *http.Client {
	_, span := tracer.Open(ctx, tracer.Named("TracedHttpClient"))
	defer span.Close()
	return &http.Client{
		Transport: tracedRoundTripper(botToken, tracedTransport()),
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (t roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return t(r)
}

func tracedRoundTripper(botToken string, next http.RoundTripper) roundTripperFunc {
	return func(r *http.Request) (*http.Response, error) {
		newctx, span := tracer.Open(r.Context(), tracer.Named("HTTP::"+MaskToken(r.URL.String(), botToken)))
		defer span.Close()
		return next.RoundTrip(r.WithContext(newctx))
	}
}

// MaskToken hides the bot token inside a Bot API URL.
func MaskToken(url, botToken string) string {
	if botToken == "" {
		return url
	}
	return strings.ReplaceAll(url, botToken, "##")
}

func tracedTransport() *http.Transport {
	// This is a copy of http.DefaultTransport with a touch of tracing for dialer
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: tracedDialer((&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func tracedDialer(dialContext func(context.Context, string, string) (net.Conn, error)) func(ctx context.Context, network string, addr string) (net.Conn, error) {
	return func(ctx context.Context, network string, addr string) (net.Conn, error) {
		ctx, span := tracer.Open(ctx, tracer.Named("Dial::"+network+"//"+addr))
		defer span.Close()
		return dialContext(ctx, network, addr)
	}
}
