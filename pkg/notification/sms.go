package notification

import (
	"context"
	"strings"

	"HerShield/pkg/logger"
	"HerShield/pkg/metrics"

	"go.uber.org/zap"
)

type SMSConfig struct {
	AccountSID        string
	AuthToken         string
	FromNumber        string
	StatusCallbackURL string
	// CountryCode is prefixed to bare national numbers, e.g. "+91".
	CountryCode string
}

// SMSReceipt is what the provider reports for an accepted message.
type SMSReceipt struct {
	SID    string
	Status string
}

// SMSClient 便于替换/注入的发送接口（适配真实 SDK）
type SMSClient interface {
	Send(ctx context.Context, from, to, body string) (*SMSReceipt, error)
}

// Gateway turns provider errors into a delivered/not-delivered boolean.
type Gateway struct {
	cfg     SMSConfig
	cli     SMSClient
	metrics *metrics.Metrics
}

func NewGateway(cfg SMSConfig, cli SMSClient, m *metrics.Metrics) *Gateway {
	return &Gateway{cfg: cfg, cli: cli, metrics: m}
}

// Configured reports whether a provider client is attached.
func (g *Gateway) Configured() bool {
	return g != nil && g.cli != nil
}

// Send normalizes to and hands message to the provider. It never returns an
// error: failures are logged and reported as false.
func (g *Gateway) Send(ctx context.Context, to, message string) bool {
	if !g.Configured() {
		logger.Warn("sms client not configured, dropping message", zap.String("to", maskPhone(to)))
		g.metrics.RecordSMS("unconfigured")
		return false
	}
	number := NormalizePhone(to, g.cfg.CountryCode)
	receipt, err := g.cli.Send(ctx, g.cfg.FromNumber, number, message)
	if err != nil {
		logger.Error("sms send failed", zap.String("to", maskPhone(number)), zap.Error(err))
		g.metrics.RecordSMS("failed")
		return false
	}
	fields := []zap.Field{zap.String("to", maskPhone(number))}
	if receipt != nil {
		fields = append(fields, zap.String("sid", receipt.SID), zap.String("status", receipt.Status))
	}
	logger.Info("sms sent", fields...)
	g.metrics.RecordSMS("delivered")
	return true
}

const nationalNumberLen = 10

// NormalizePhone converts a user-entered number to E.164 form.
func NormalizePhone(raw, countryCode string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "+") {
		return s
	}
	if strings.HasPrefix(s, "00") {
		return "+" + s[2:]
	}

	cc := strings.TrimPrefix(countryCode, "+")
	if cc != "" && len(s) == len(cc)+nationalNumberLen && strings.HasPrefix(s, cc) {
		return "+" + s
	}
	s = strings.TrimLeft(s, "0")
	if cc == "" {
		return "+" + s
	}
	return "+" + cc + s
}

// maskPhone keeps the last four digits for logs.
func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
