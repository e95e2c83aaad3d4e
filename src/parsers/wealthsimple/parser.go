package wealthsimple

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/models"
	"github.com/username/wealthfolio/backend/src/security/validation"
	"github.com/username/wealthfolio/backend/src/utils"
)

const parseMethod = "wealthsimple_regex"

// ErrNoOrderLine means the email carried no recognizable filled-order line
// with symbol, direction, quantity and price. The ingestion service wraps
// this into its parsing-failed sentinel.
var ErrNoOrderLine = errors.New("wealthsimple parser: no recognizable order confirmation in email")

var (
	// "your TFSA order to buy 100 shares of AAPL", "order to sell 2.5 shares of VTI.TO"
	orderLineRe = regexp.MustCompile(`(?i)\border to (buy|sell)\s+([0-9,]+(?:\.[0-9]+)?)\s+shares?\s+of\s+([A-Za-z][A-Za-z0-9.\-]{0,11})\b`)
	// fallback wording used by older confirmation templates
	filledLineRe = regexp.MustCompile(`(?i)\b(bought|sold)\s+([0-9,]+(?:\.[0-9]+)?)\s+shares?\s+of\s+([A-Za-z][A-Za-z0-9.\-]{0,11})\b`)

	priceRe   = regexp.MustCompile(`(?i)(?:filled at|at an? (?:average )?price of|price:)\s*\$?\s*([0-9,]+(?:\.[0-9]+)?)`)
	totalRe   = regexp.MustCompile(`(?i)total(?:\s+(?:amount|cost|value))?\s*[:of]*\s*\$?\s*([0-9,]+(?:\.[0-9]+)?)`)
	accountRe = regexp.MustCompile(`(?i)\b(TFSA|RRSP|RESP|FHSA|LIRA|RRIF|Margin|Cash|Non-registered)\b`)
	dateRe    = regexp.MustCompile(`(?i)(?:filled|executed|completed)\s+on\s+([A-Za-z]+\s+[0-9]{1,2},\s*[0-9]{4})`)
)

// Parser implements parsers.EmailParser for Wealthsimple trade-confirmation
// emails. Extraction is regex-based over the sanitized plain-text body.
type Parser struct{}

// NewParser creates a new instance of the Wealthsimple parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a structured transaction from one raw email. Symbol,
// direction, quantity and price are required; everything else degrades
// gracefully and lowers the reported parse confidence.
func (p *Parser) Parse(raw *models.RawEmail) (*models.ParsedTransactionEmail, error) {
	if raw == nil {
		return nil, errors.New("wealthsimple parser: nil email")
	}

	body := raw.Body
	if strings.Contains(body, "<") && strings.Contains(body, ">") {
		body = validation.SanitizeHTMLStripTags(body)
	}
	body = validation.StripUnprintable(body)
	text := raw.Subject + "\n" + body

	confidence := 1.0

	m := orderLineRe.FindStringSubmatch(text)
	if m == nil {
		m = filledLineRe.FindStringSubmatch(text)
		confidence -= 0.1 // older template, weaker signal
	}
	if m == nil {
		return nil, ErrNoOrderLine
	}

	direction := strings.ToLower(m[1])
	txType := models.TransactionBuy
	if direction == "sell" || direction == "sold" {
		txType = models.TransactionSell
	}

	quantity, err := parseAmount(m[2])
	if err != nil || quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %q: %w", m[2], ErrNoOrderLine)
	}
	symbol := strings.ToUpper(m[3])

	price := 0.0
	if pm := priceRe.FindStringSubmatch(text); pm != nil {
		price, err = parseAmount(pm[1])
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", pm[1], ErrNoOrderLine)
		}
	}
	if price <= 0 {
		return nil, ErrNoOrderLine
	}

	total := 0.0
	if tm := totalRe.FindStringSubmatch(text); tm != nil {
		if v, err := parseAmount(tm[1]); err == nil {
			total = v
		}
	}
	if total == 0 {
		total = utils.RoundFloat(quantity*price, 2)
		confidence -= 0.1
	}

	accountType := ""
	if am := accountRe.FindStringSubmatch(text); am != nil {
		accountType = normalizeAccountType(am[1])
	} else {
		confidence -= 0.15
	}

	txDate := raw.ReceivedAt
	if dm := dateRe.FindStringSubmatch(text); dm != nil {
		if d, err := utils.ParseEmailDate(dm[1]); err == nil {
			txDate = d
		} else {
			confidence -= 0.1
		}
	} else {
		confidence -= 0.1
	}
	if txDate.IsZero() {
		txDate = time.Now().UTC()
		confidence -= 0.1
	}

	parsed := &models.ParsedTransactionEmail{
		Symbol:          symbol,
		TransactionType: txType,
		Quantity:        quantity,
		Price:           price,
		TotalAmount:     total,
		AccountType:     accountType,
		TransactionDate: txDate,
		Subject:         raw.Subject,
		FromEmail:       raw.FromEmail,
		RawContent:      body,
		Confidence:      utils.RoundFloat(confidence, 2),
		ParseMethod:     parseMethod,
	}

	logger.L.Debug("Parsed Wealthsimple confirmation email",
		"symbol", parsed.Symbol, "type", parsed.TransactionType,
		"quantity", parsed.Quantity, "price", parsed.Price,
		"confidence", parsed.Confidence)
	return parsed, nil
}

// parseAmount strips currency formatting ("15,025.00") before conversion.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}

func normalizeAccountType(s string) string {
	switch strings.ToLower(s) {
	case "margin":
		return "Margin"
	case "cash":
		return "Cash"
	case "non-registered":
		return "Non-registered"
	default:
		return strings.ToUpper(s)
	}
}
