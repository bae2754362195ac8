package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/order"
)

// DefaultTimeout bounds one notification attempt.
const DefaultTimeout = 10 * time.Second

// TelegramNotifier posts order notifications to the hosted notification
// function, which relays them to the admin's Telegram chat.
type TelegramNotifier struct {
	endpoint string
	token    string
	client   *http.Client
	logger   logging.Logger
}

// NewTelegramNotifier builds a notifier for the given function endpoint.
func NewTelegramNotifier(endpoint, token string, logger logging.Logger) *TelegramNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &TelegramNotifier{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   logger,
	}
}

type notifyRequest struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// OrderCreated sends the admin message. Failures are recorded in the
// returned Delivery and logged, never returned as an error.
func (n *TelegramNotifier) OrderCreated(o *order.Order, discount decimal.Decimal, promoCode string) Delivery {
	body, err := json.Marshal(notifyRequest{
		Message: FormatOrderMessage(o, discount, promoCode),
		OrderID: o.ID,
	})
	if err != nil {
		return n.failed(o.ID, err)
	}

	req, err := http.NewRequest(http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return n.failed(o.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return n.failed(o.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return n.failed(o.ID, fmt.Errorf("notification endpoint returned status %d", resp.StatusCode))
	}

	n.logger.Info("order notification sent", logging.String("order_id", o.ID))
	return Delivery{Sent: true}
}

func (n *TelegramNotifier) failed(orderID string, err error) Delivery {
	n.logger.Warn("order notification failed",
		logging.String("order_id", orderID),
		logging.Error(err),
	)
	return Delivery{Sent: false, Err: err}
}
