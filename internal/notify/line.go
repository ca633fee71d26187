package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pkordes/tour-booking/internal/domain"
)

// DefaultLineEndpoint is the LINE Messaging API push endpoint.
const DefaultLineEndpoint = "https://api.line.me/v2/bot/message/push"

// LineClient pushes text messages through the LINE Messaging API.
type LineClient struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewLineClient constructs a LineClient. A nil httpClient uses
// http.DefaultClient; per-call deadlines come from the context.
func NewLineClient(endpoint, token string, httpClient *http.Client) *LineClient {
	if endpoint == "" {
		endpoint = DefaultLineEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LineClient{endpoint: endpoint, token: token, http: httpClient}
}

func (c *LineClient) NotifyBooked(ctx context.Context, n domain.BookedNotice) error {
	return c.push(ctx, n.MessagingIdentity, BookedMessage(n))
}

func (c *LineClient) NotifyCancelled(ctx context.Context, n domain.CancelledNotice) error {
	return c.push(ctx, n.MessagingIdentity, CancelledMessage(n))
}

type linePush struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *LineClient) push(ctx context.Context, to, text string) error {
	body, err := json.Marshal(linePush{To: to, Messages: []lineMessage{{Type: "text", Text: text}}})
	if err != nil {
		return fmt.Errorf("notify.LineClient.push: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.LineClient.push: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.LineClient.push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify.LineClient.push: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

var yen = message.NewPrinter(language.Japanese)

// BookedMessage renders the booking confirmation text.
func BookedMessage(n domain.BookedNotice) string {
	return yen.Sprintf("予約を受け付けました\n\nツアー名：%s\n日付：%s\n人数：%d名\n金額：¥%d\n\nキャンセルの際は公式LINEからご連絡ください",
		n.TourTitle, n.Date.Format(domain.DateLayout), n.Passengers, n.TotalPrice)
}

// CancelledMessage renders the cancellation text.
func CancelledMessage(n domain.CancelledNotice) string {
	return fmt.Sprintf("予約をキャンセルしました\n\nツアー名：%s\n日付：%s\n\nご利用ありがとうございました",
		n.TourTitle, n.Date.Format(domain.DateLayout))
}
