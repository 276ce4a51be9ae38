package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found upstream or in the database
	ErrProductNotFound = errors.New("product not found")

	// ErrUpstreamUnavailable is returned when the Open Food Facts lookup fails;
	// callers fall back to local computation
	ErrUpstreamUnavailable = errors.New("upstream lookup unavailable")

	// ErrInvalidInput is returned when a product record is missing required fields
	ErrInvalidInput = errors.New("invalid product input")

	// ErrInferenceFailed is returned when the AI ingredient inferrer cannot produce a usable list
	ErrInferenceFailed = errors.New("ingredient inference failed")

	// ErrTableNotLoaded is returned when a reference table is consulted before loading
	ErrTableNotLoaded = errors.New("reference table not loaded")

	// ErrUnknownRiskTier is returned when an additive table row carries an unrecognized tier
	ErrUnknownRiskTier = errors.New("unknown additive risk tier")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
