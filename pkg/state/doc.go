// Package state resolves the state enum of each transitionable model type and
// converts between stored state tokens and typed enum values.
//
// Every model type is registered up front with its closed set of states:
//
//	type PaymentState string
//
//	func (s PaymentState) Name() string { return string(s) }
//
//	const (
//	    Pending  PaymentState = "pending"
//	    Approved PaymentState = "approved"
//	)
//
//	registry := state.MustNewRegistry(
//	    state.WithStates("payment", Pending, Approved),
//	    state.WithLoader("payment", loadPayment),
//	)
//	codec := state.NewCodec(registry)
//
// Decode returns the enum value for a stored token, a nil State for a blank
// token, ErrUnknownStateToken for a token outside the enum and
// ErrUnresolvableStateEnum for an unregistered model type. Encode accepts any
// State, a raw string or nil.
package state
