package types

type Mode string

const (
	ModeConcurrent Mode = "zip"
	ModeSequential Mode = "flat"
)

const FallbackPaymentID = "FALLBACK"

type UserRecord struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Tier   string `json:"tier,omitempty"`
}

type OrderRecord struct {
	OrderID string  `json:"orderId"`
	Item    string  `json:"item"`
	Amount  float64 `json:"amount"`
}

// PaymentRecord carries either a real upstream payment or a synthesized
// fallback. A fallback always has PaymentID == FallbackPaymentID and the
// degradation fields filled in.
type PaymentRecord struct {
	PaymentID           string  `json:"paymentId"`
	Status              string  `json:"status"`
	Amount              float64 `json:"amount,omitempty"`
	Reason              string  `json:"reason,omitempty"`
	CircuitBreakerState string  `json:"circuitBreakerState,omitempty"`
	Message             string  `json:"message,omitempty"`
}

func FallbackPayment(reason, breakerState string) PaymentRecord {
	return PaymentRecord{
		PaymentID:           FallbackPaymentID,
		Status:              "DEGRADED",
		Reason:              reason,
		CircuitBreakerState: breakerState,
		Message:             "payment service unavailable, returning fallback",
	}
}

func (p PaymentRecord) IsFallback() bool {
	return p.PaymentID == FallbackPaymentID
}

type AggregateResult struct {
	Mode          string        `json:"mode"`
	User          *UserRecord   `json:"user"`
	Order         *OrderRecord  `json:"order"`
	Payment       PaymentRecord `json:"payment"`
	ElapsedMillis int64         `json:"elapsedMillis"`
	Message       string        `json:"message"`
}
