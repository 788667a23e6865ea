package enums

import "fmt"

// CheckoutStep is a state of the checkout wizard.
type CheckoutStep string

const (
	CheckoutStepCustomerInfo CheckoutStep = "customer_info"
	CheckoutStepPayment      CheckoutStep = "payment"
	CheckoutStepConfirmation CheckoutStep = "confirmation"
	CheckoutStepCompleted    CheckoutStep = "completed"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepCustomerInfo,
	CheckoutStepPayment,
	CheckoutStepConfirmation,
	CheckoutStepCompleted,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
