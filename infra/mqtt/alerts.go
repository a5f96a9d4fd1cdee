package mqtt

import (
	"context"

	"github.com/corner-25/test-umc-sub000/core/alerts"
)

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, v any) error
}

// AlertNotifier publishes overload alerts under
// <prefix>/overloads/<subject>/<severity>.
type AlertNotifier struct {
	pub jsonPublisher
	cfg Config
}

// NewAlertNotifier wraps a connected client.
func NewAlertNotifier(c *Client) *AlertNotifier {
	return &AlertNotifier{pub: c, cfg: c.Config()}
}

// Notify implements alerts.Notifier.
func (n *AlertNotifier) Notify(ctx context.Context, a alerts.Alert) error {
	topic := n.cfg.Topic("overloads", a.Overload.Subject, string(a.Overload.Severity))
	return n.pub.PublishJSON(ctx, topic, a)
}
