package dedup

import (
	"strings"
	"testing"
)

func TestExtractOrderID(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{
			name:    "labeled order number in body",
			subject: "Your order has been filled",
			body:    "Your order to buy 10 shares of AAPL was filled.\nOrder number: WS12345678",
			want:    "WS12345678",
		},
		{
			name:    "order id with hash",
			subject: "Trade confirmation",
			body:    "Order #A1B2-C3D4E5",
			want:    "A1B2-C3D4E5",
		},
		{
			name:    "confirmation number",
			subject: "Trade confirmation",
			body:    "Confirmation number: 20240117-0042",
			want:    "20240117-0042",
		},
		{
			name:    "reference number lowercase",
			subject: "fwd: trade",
			body:    "reference #: ws987654321",
			want:    "WS987654321",
		},
		{
			name:    "bare wealthsimple token",
			subject: "Order filled",
			body:    "Thanks for trading with us. WS00112233 completed at 14:02.",
			want:    "WS00112233",
		},
		{
			name:    "subject takes precedence over body",
			subject: "Order number: WS11111111",
			body:    "Order number: WS22222222",
			want:    "WS11111111",
		},
		{
			name:    "no order id present",
			subject: "Your order has been filled",
			body:    "Your order to buy 10 shares of AAPL was filled at $150.00",
			want:    "",
		},
		{
			name:    "short token not picked up",
			subject: "",
			body:    "WS1234 is too short to be an order id",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractOrderID(tt.subject, tt.body)
			if got != tt.want {
				t.Errorf("extractOrderID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComputeSignatureNormalization(t *testing.T) {
	base := computeSignature("Order Filled: AAPL", "noreply@wealthsimple.com", "You bought 10 shares of AAPL at $150.00")

	// Case and whitespace differences should not change identity.
	sameCase := computeSignature("order filled: aapl", "NOREPLY@Wealthsimple.com", "You  bought 10 shares\nof AAPL at $150.00")
	if sameCase != base {
		t.Errorf("signature changed on case/whitespace variation")
	}

	differentBody := computeSignature("Order Filled: AAPL", "noreply@wealthsimple.com", "You bought 20 shares of AAPL at $150.00")
	if differentBody == base {
		t.Errorf("signature did not change on different body")
	}

	differentSender := computeSignature("Order Filled: AAPL", "noreply@questrade.com", "You bought 10 shares of AAPL at $150.00")
	if differentSender == base {
		t.Errorf("signature did not change on different sender")
	}
}

func TestComputeSignatureSalientPrefix(t *testing.T) {
	lead := strings.Repeat("x ", salientContentLength) // normalized length > salientContentLength
	a := computeSignature("subject", "from@x.com", lead+"unsubscribe footer variant one")
	b := computeSignature("subject", "from@x.com", lead+"completely different trailing text")
	if a != b {
		t.Errorf("content beyond the salient prefix should not affect the signature")
	}
}

func TestExtractIdentificationDegenerateInput(t *testing.T) {
	ident := ExtractIdentification("", "", "")
	if ident.OrderID != "" {
		t.Errorf("OrderID = %q, want empty", ident.OrderID)
	}
	if ident.Signature == "" {
		t.Errorf("Signature must always be populated")
	}

	if got := Identify(nil); got.Signature != ident.Signature {
		t.Errorf("Identify(nil) signature = %q, want %q", got.Signature, ident.Signature)
	}
}
