package checkout

import (
	"sync"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

const (
	msgSelectPayment         = "Selecciona un método de pago para continuar."
	msgSelectPaymentOnSubmit = "Selecciona un método de pago."
	msgAcceptTerms           = "Debes aceptar los términos y condiciones."
)

// State is the serializable wizard state.
type State struct {
	Step          enums.CheckoutStep  `json:"step"`
	Customer      CustomerDetails     `json:"customer"`
	Errors        FieldErrors         `json:"errors,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod,omitempty"`
	TermsAccepted bool                `json:"termsAccepted"`
	SubmitError   string              `json:"submitError,omitempty"`
	Submitting    bool                `json:"submitting"`
	Order         *OrderSummary       `json:"order,omitempty"`
}

// NewState returns a wizard positioned on the first step.
func NewState() State {
	return State{Step: enums.CheckoutStepCustomerInfo}
}

// Wizard drives customer_info -> payment -> confirmation. Going back keeps the
// entered data. All methods are safe for concurrent use.
type Wizard struct {
	mu    sync.Mutex
	state State
}

// NewWizard restores a wizard from a persisted state. Unknown steps restart
// at customer_info.
func NewWizard(state State) *Wizard {
	if !state.Step.IsValid() {
		state.Step = enums.CheckoutStepCustomerInfo
	}
	if state.Step == enums.CheckoutStepCompleted && state.Order == nil {
		state = NewState()
	}
	state.Submitting = false
	return &Wizard{state: state}
}

func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copyLocked()
}

// UpdateCustomer applies the edited fields and clears their errors.
func (w *Wizard) UpdateCustomer(patch CustomerPatch) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return w.copyLocked(), err
	}
	for _, field := range patch.Apply(&w.state.Customer) {
		delete(w.state.Errors, field)
	}
	if len(w.state.Errors) == 0 {
		w.state.Errors = nil
	}
	return w.copyLocked(), nil
}

// GoToPayment validates the customer details and advances on success. On
// failure the per-field errors are stored and returned as details.
func (w *Wizard) GoToPayment() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStepLocked(enums.CheckoutStepCustomerInfo, enums.CheckoutStepPayment); err != nil {
		return w.copyLocked(), err
	}
	if errs := ValidateCustomer(w.state.Customer); len(errs) > 0 {
		w.state.Errors = errs
		return w.copyLocked(), pkgerrors.New(pkgerrors.CodeValidation, "customer details invalid").
			WithDetails(map[string]any{"errors": errs})
	}
	w.state.Errors = nil
	w.state.Step = enums.CheckoutStepPayment
	return w.copyLocked(), nil
}

// SelectPaymentMethod records the method and clears the submit error.
func (w *Wizard) SelectPaymentMethod(method enums.PaymentMethod) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return w.copyLocked(), err
	}
	if !method.IsValid() {
		return w.copyLocked(), pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"paymentMethod": string(method)})
	}
	w.state.PaymentMethod = method
	w.state.SubmitError = ""
	return w.copyLocked(), nil
}

func (w *Wizard) GoToConfirmation() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStepLocked(enums.CheckoutStepPayment, enums.CheckoutStepConfirmation); err != nil {
		return w.copyLocked(), err
	}
	if w.state.PaymentMethod == "" {
		w.state.SubmitError = msgSelectPayment
		return w.copyLocked(), pkgerrors.New(pkgerrors.CodeValidation, msgSelectPayment)
	}
	w.state.SubmitError = ""
	w.state.Step = enums.CheckoutStepConfirmation
	return w.copyLocked(), nil
}

func (w *Wizard) AcceptTerms(accepted bool) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return w.copyLocked(), err
	}
	w.state.TermsAccepted = accepted
	return w.copyLocked(), nil
}

// Back moves one step towards customer_info. It does nothing on the first step.
func (w *Wizard) Back() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return w.copyLocked(), err
	}
	switch w.state.Step {
	case enums.CheckoutStepConfirmation:
		w.state.Step = enums.CheckoutStepPayment
	case enums.CheckoutStepPayment:
		w.state.Step = enums.CheckoutStepCustomerInfo
	}
	w.state.SubmitError = ""
	return w.copyLocked(), nil
}

// beginSubmit checks the confirmation guards and marks the wizard as
// submitting so a concurrent submit is rejected.
func (w *Wizard) beginSubmit() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Submitting {
		return w.copyLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitting")
	}
	if w.state.Step != enums.CheckoutStepConfirmation {
		return w.copyLocked(), stepConflict(w.state.Step, "submit")
	}
	if !w.state.TermsAccepted {
		w.state.SubmitError = msgAcceptTerms
		return w.copyLocked(), pkgerrors.New(pkgerrors.CodeValidation, msgAcceptTerms)
	}
	if w.state.PaymentMethod == "" {
		w.state.SubmitError = msgSelectPaymentOnSubmit
		return w.copyLocked(), pkgerrors.New(pkgerrors.CodeValidation, msgSelectPaymentOnSubmit)
	}
	w.state.SubmitError = ""
	w.state.Submitting = true
	return w.copyLocked(), nil
}

func (w *Wizard) abortSubmit(message string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Submitting = false
	w.state.SubmitError = message
	return w.copyLocked()
}

func (w *Wizard) complete(summary OrderSummary) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Submitting = false
	w.state.Step = enums.CheckoutStepCompleted
	w.state.Order = &summary
	return w.copyLocked()
}

// Reset starts a fresh wizard.
func (w *Wizard) Reset() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = NewState()
	return w.copyLocked()
}

func (w *Wizard) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Step == enums.CheckoutStepCompleted
}

func (w *Wizard) editableLocked() error {
	if w.state.Step == enums.CheckoutStepCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already completed")
	}
	if w.state.Submitting {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already submitting")
	}
	return nil
}

func (w *Wizard) requireStepLocked(want, target enums.CheckoutStep) error {
	if err := w.editableLocked(); err != nil {
		return err
	}
	if w.state.Step != want {
		return stepConflict(w.state.Step, target.String())
	}
	return nil
}

func (w *Wizard) copyLocked() State {
	out := w.state
	if w.state.Errors != nil {
		out.Errors = make(FieldErrors, len(w.state.Errors))
		for k, v := range w.state.Errors {
			out.Errors[k] = v
		}
	}
	if w.state.Order != nil {
		order := *w.state.Order
		out.Order = &order
	}
	return out
}

func stepConflict(current enums.CheckoutStep, target string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout step does not allow this action").
		WithDetails(map[string]any{"step": current.String(), "action": target})
}
