package settlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/marketplace/backend/internal/domain/shared"
)

// CommissionContext carries the originating commission's financial fields,
// included in the integrity hash when the transaction settles a commission.
type CommissionContext struct {
	CommissionID string
	Rate         string
	Amount       string
	OrderID      string
}

// IntegrityGuard computes and validates keyed checksums over a transaction's
// financial fields so that tampered or corrupted records are detected before
// any money moves.
type IntegrityGuard struct {
	secret  []byte
	enabled bool
}

// NewIntegrityGuard creates an integrity guard with the server-held secret.
// When enabled is false, ComputeHash returns an empty string and Verify always
// succeeds; production configuration should keep it on.
func NewIntegrityGuard(secret string, enabled bool) (*IntegrityGuard, error) {
	if enabled && secret == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Integrity secret cannot be empty when integrity checking is enabled")
	}
	return &IntegrityGuard{secret: []byte(secret), enabled: enabled}, nil
}

// Enabled reports whether integrity checking is active
func (g *IntegrityGuard) Enabled() bool {
	return g.enabled
}

// ComputeHash builds the canonical representation of the transaction's critical
// financial fields and returns its HMAC-SHA256 under the server secret.
func (g *IntegrityGuard) ComputeHash(t *Transaction, cc *CommissionContext) string {
	if !g.enabled {
		return ""
	}

	fields := map[string]string{
		"amount":             t.Amount.StringFixed(2),
		"buyer_id":           t.BuyerID.String(),
		"commission_percent": t.CommissionPercent.StringFixed(4),
		"reference":          t.Reference,
		"type":               t.Type.String(),
		"vendor_amount":      t.VendorAmount.StringFixed(2),
	}
	if t.VendorID != nil {
		fields["vendor_id"] = t.VendorID.String()
	}
	if cc != nil {
		fields["commission_id"] = cc.CommissionID
		fields["commission_rate"] = cc.Rate
		fields["commission_amount"] = cc.Amount
		fields["order_id"] = cc.OrderID
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(canonicalize(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the hash from the transaction's current field values and
// compares it in constant time against the stored hash. A mismatch means the
// record was tampered with or corrupted and must not be processed further.
func (g *IntegrityGuard) Verify(t *Transaction, cc *CommissionContext) error {
	if !g.enabled {
		return nil
	}
	if t.IntegrityHash == "" {
		return shared.NewDomainError("INTEGRITY_VIOLATION",
			fmt.Sprintf("Transaction %s has no integrity hash", t.Reference))
	}

	expected := g.ComputeHash(t, cc)
	if !hmac.Equal([]byte(expected), []byte(t.IntegrityHash)) {
		return shared.NewDomainError("INTEGRITY_VIOLATION",
			fmt.Sprintf("Integrity hash mismatch for transaction %s", t.Reference))
	}
	return nil
}

// canonicalize joins sorted key:value pairs with a delimiter so the hash input
// is deterministic regardless of map iteration order.
func canonicalize(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(fields[k])
	}
	return b.String()
}
