package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-svc/models"
)

const brevoBaseURL = "https://api.brevo.com/v3/smtp/email"

type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	// BCC receives a copy of every confirmation, usually the shop owner.
	BCC       string
	StoreName string
	// SupportEmail receives contact enquiries. Defaults to SenderEmail.
	SupportEmail string
}

// BrevoSender sends the confirmation email through Brevo's transactional API.
type BrevoSender struct {
	cfg     BrevoConfig
	baseURL string
	client  *http.Client
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	BCC         []brevoContact `json:"bcc,omitempty"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent"`
}

func NewBrevoSender(cfg BrevoConfig) *BrevoSender {
	return &BrevoSender{
		cfg:     cfg,
		baseURL: brevoBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *BrevoSender) Name() string { return "brevo" }

func (s *BrevoSender) Send(ctx context.Context, order models.Order) error {
	if s.cfg.APIKey == "" {
		return fmt.Errorf("BREVO_API_KEY not set")
	}

	req := brevoRequest{
		Sender:      brevoContact{Email: s.cfg.SenderEmail, Name: s.cfg.SenderName},
		To:          []brevoContact{{Email: order.Customer.Email, Name: order.Customer.Name}},
		Subject:     confirmationSubject(order, s.cfg.StoreName),
		HTMLContent: confirmationHTML(order),
		TextContent: confirmationText(order),
	}
	if s.cfg.BCC != "" {
		req.BCC = []brevoContact{{Email: s.cfg.BCC}}
	}

	_, err := s.post(ctx, req)
	return err
}

// SendContact mails an enquiry to the support inbox with the submitter in
// copy and returns Brevo's message id.
func (s *BrevoSender) SendContact(ctx context.Context, msg models.ContactRequest) (string, error) {
	if s.cfg.APIKey == "" {
		return "", fmt.Errorf("BREVO_API_KEY not set")
	}
	support := s.cfg.SupportEmail
	if support == "" {
		support = s.cfg.SenderEmail
	}

	req := brevoRequest{
		Sender: brevoContact{Email: s.cfg.SenderEmail, Name: s.cfg.SenderName},
		To: []brevoContact{
			{Email: msg.Email, Name: msg.Name},
			{Email: support, Name: strings.TrimSpace(s.cfg.StoreName + " Support")},
		},
		Subject:     "New Enquiry: " + msg.Subject,
		HTMLContent: textToHTML(contactText(msg)),
		TextContent: contactText(msg),
	}
	return s.post(ctx, req)
}

func (s *BrevoSender) post(ctx context.Context, req brevoRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-key", s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("brevo returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		MessageID string `json:"messageId"`
	}
	_ = json.Unmarshal(respBody, &out)
	return out.MessageID, nil
}

func confirmationSubject(order models.Order, storeName string) string {
	subject := "Order Confirmed! #" + order.OrderID
	if storeName != "" {
		subject += " - " + storeName
	}
	return subject
}

func confirmationText(order models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", order.Customer.Name)
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", order.OrderID)
	fmt.Fprintf(&b, "%s x %d: Rs. %.2f\n", order.Product.Name, order.Product.Quantity, order.Subtotal)
	fmt.Fprintf(&b, "Shipping: Rs. %.2f\n", order.ShippingCharge)
	fmt.Fprintf(&b, "Total paid: Rs. %.2f\n\n", order.TotalAmount)
	a := order.ShippingAddress
	fmt.Fprintf(&b, "Shipping to: %s, %s, %s - %s\n", a.Address, a.City, a.State, a.Pincode)
	return b.String()
}

func contactText(msg models.ContactRequest) string {
	phone := msg.Phone
	if phone == "" {
		phone = "Not provided"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	fmt.Fprintf(&b, "Phone: %s\n", phone)
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	b.WriteString(msg.Message)
	b.WriteString("\n")
	return b.String()
}

func confirmationHTML(order models.Order) string {
	return textToHTML(confirmationText(order))
}

func textToHTML(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return "<p>" + strings.Join(lines, "<br>") + "</p>"
}
