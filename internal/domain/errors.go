package domain

import "errors"

var (
	// ErrAuthRequired is returned by any mutating operation attempted with no
	// signed-in identity. The operation must not have touched the network.
	ErrAuthRequired = errors.New("sign in required")

	// ErrMutationFailed wraps a remote-store rejection of a write; cached
	// state is left untouched.
	ErrMutationFailed = errors.New("mutation failed")

	// ErrFetchFailed wraps a failed read; the prior snapshot is retained.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrPaymentInit means a payment session or redirect handle could not be
	// obtained. Fatal for the current checkout visit.
	ErrPaymentInit = errors.New("payment initialization failed")

	// ErrPaymentConfirm wraps a provider-side confirmation failure. The user
	// may retry or switch method.
	ErrPaymentConfirm = errors.New("payment confirmation failed")

	// ErrEmptyCart blocks checkout pricing and payment for an empty cart.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
)
