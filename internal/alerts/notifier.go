package alerts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier pushes report alerts to a Telegram chat. With no token or
// chat id configured it is a no-op, so the pipeline runs the same with
// or without notifications.
type Notifier struct {
	logger   *logrus.Logger
	client   *http.Client
	botToken string
	chatID   string
	apiBase  string
}

func NewNotifier(botToken, chatID string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		logger:   logger,
		botToken: botToken,
		chatID:   chatID,
		apiBase:  "https://api.telegram.org",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether the notifier has a destination configured.
func (n *Notifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// Notify sends the report alerts as one message. Disabled or empty
// input is a silent no-op.
func (n *Notifier) Notify(alerts []string) error {
	if !n.Enabled() || len(alerts) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("🏚 <b>Glass House alerts</b>\n")
	for _, alert := range alerts {
		b.WriteString("• ")
		b.WriteString(alert)
		b.WriteString("\n")
	}

	if err := n.sendMessage(b.String()); err != nil {
		return err
	}

	n.logger.WithField("alerts", len(alerts)).Info("Sent alert notification")
	return nil
}

func (n *Notifier) sendMessage(message string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	payload := map[string]interface{}{
		"chat_id":    n.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := n.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}
