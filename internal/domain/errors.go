package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the engine wraps exactly one of
// these, so callers can classify with errors.Is while still receiving a
// stable human-readable reason.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrLockHeld          = errors.New("lock already held")
)

// Authorization reasons.
var (
	ErrNotCampaignArtist = fmt.Errorf("%w: you're not the campaign artist", ErrUnauthorized)
	ErrNotOwner          = fmt.Errorf("%w: you're not the owner", ErrUnauthorized)
)

// Lifecycle-state reasons. Expiry is derived from timestamps at call time,
// never stored, so "campaign ended" can surface without a prior transition.
var (
	ErrAlreadyStarted    = fmt.Errorf("%w: campaign already started", ErrInvalidState)
	ErrNotStarted        = fmt.Errorf("%w: artist didn't start the campaign yet", ErrInvalidState)
	ErrCampaignClosed    = fmt.Errorf("%w: campaign closed", ErrInvalidState)
	ErrCampaignEnded     = fmt.Errorf("%w: campaign ended", ErrInvalidState)
	ErrMissingTierPrices = fmt.Errorf("%w: missing tier prices", ErrInvalidState)
	ErrInProgress        = fmt.Errorf("%w: campaign still in progress", ErrInvalidState)
	ErrAlreadyWithdrawn  = fmt.Errorf("%w: funds already withdrawn", ErrInvalidState)
)

// Input-validation reasons.
var (
	ErrNameTooShort        = fmt.Errorf("%w: name too short", ErrValidation)
	ErrNameTooLong         = fmt.Errorf("%w: name too long", ErrValidation)
	ErrDescriptionTooShort = fmt.Errorf("%w: description too short", ErrValidation)
	ErrBioTooShort         = fmt.Errorf("%w: bio too short", ErrValidation)
	ErrWrongFeesOption     = fmt.Errorf("%w: wrong fees option", ErrValidation)
	ErrTierNotFound        = fmt.Errorf("%w: tier does not exist", ErrValidation)
	ErrPriceTooLow         = fmt.Errorf("%w: price too low", ErrValidation)
	ErrPriceBelowPrevious  = fmt.Errorf("%w: price should be higher than the previous tier", ErrValidation)
	ErrPriceAboveNext      = fmt.Errorf("%w: price should be lower than the next tier", ErrValidation)
	ErrNotEnoughTiers      = fmt.Errorf("%w: not enough tier prices", ErrValidation)
	ErrTooManyTiers        = fmt.Errorf("%w: too many tier prices", ErrValidation)
	ErrObjectifTooLow      = fmt.Errorf("%w: objectif too low", ErrValidation)
	ErrMaxCampaigns        = fmt.Errorf("%w: max campaigns reached", ErrValidation)
	ErrWrongValue          = fmt.Errorf("%w: wrong value", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be positive", ErrValidation)
)

// Ledger reasons.
var (
	ErrInsufficientBalance   = fmt.Errorf("%w: balance too low", ErrInsufficientFunds)
	ErrInsufficientAllowance = fmt.Errorf("%w: allowance too low", ErrInsufficientFunds)
)
