package models

import "fmt"

const (
	ChannelEmail    = "email"
	ChannelPostback = "postback"
)

// DeliveryResult is the outcome of a best-effort side effect. Callers log it;
// a failed delivery never fails the operation that triggered it.
type DeliveryResult struct {
	Channel string
	Detail  string
	Err     error
}

// Failed reports whether the delivery did not go through.
func (r DeliveryResult) Failed() bool { return r.Err != nil }

func (r DeliveryResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s failed: %v", r.Channel, r.Err)
	}
	return fmt.Sprintf("%s ok %s", r.Channel, r.Detail)
}
