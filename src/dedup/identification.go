package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/username/wealthfolio/backend/src/models"
)

// salientContentLength is how much of the normalized body participates in the
// signature. Enough to capture the transaction block of a confirmation email
// while ignoring footers and tracking pixels further down.
const salientContentLength = 256

// Order / confirmation number patterns, tried in order. The first capture
// group is the id. Wealthsimple uses bare WS-prefixed numeric tokens; the
// labeled forms cover reformatted and forwarded emails.
var orderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)order\s*(?:number|id|#)\s*[:#]?\s*([A-Z]{0,4}[0-9][A-Z0-9-]{5,19})`),
	regexp.MustCompile(`(?i)confirmation\s*(?:number|id|#)?\s*[:#]\s*([A-Z]{0,4}[0-9][A-Z0-9-]{5,19})`),
	regexp.MustCompile(`(?i)reference\s*(?:number|#)?\s*[:#]\s*([A-Z]{0,4}[0-9][A-Z0-9-]{5,19})`),
	regexp.MustCompile(`\b(WS[0-9]{6,12})\b`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExtractIdentification derives the stable identity fields for an email from
// its subject, sender and body. It is a pure function and never fails: with
// degenerate input the order id is simply absent and the signature falls back
// to a hash of whatever fields are present.
func ExtractIdentification(subject, fromEmail, body string) models.EmailIdentification {
	return models.EmailIdentification{
		OrderID:   extractOrderID(subject, body),
		Signature: computeSignature(subject, fromEmail, body),
	}
}

// Identify is ExtractIdentification applied to a parsed email.
func Identify(email *models.ParsedTransactionEmail) models.EmailIdentification {
	if email == nil {
		return models.EmailIdentification{Signature: computeSignature("", "", "")}
	}
	return ExtractIdentification(email.Subject, email.FromEmail, email.RawContent)
}

// extractOrderID scans subject then body for a recognizable order or
// confirmation number. Returns "" when no pattern matches.
func extractOrderID(subject, body string) string {
	for _, text := range []string{subject, body} {
		for _, re := range orderIDPatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				return strings.ToUpper(m[1])
			}
		}
	}
	return ""
}

// computeSignature builds the exact-match signature: a hash over the
// normalized sender, subject and the salient prefix of the body. Two emails
// that differ only in case or whitespace produce the same signature.
func computeSignature(subject, fromEmail, body string) string {
	salient := normalizeText(body)
	if len(salient) > salientContentLength {
		salient = salient[:salientContentLength]
	}
	composite := normalizeText(fromEmail) + "|" + normalizeText(subject) + "|" + salient
	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:])
}

// normalizeText lowercases and collapses all runs of whitespace to single
// spaces so formatting-only differences do not change identity.
func normalizeText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}
