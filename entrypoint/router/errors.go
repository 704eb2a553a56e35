package router

import errorsmod "cosmossdk.io/errors"

const Codespace = "entrypoint"

var (
	ErrNoRefundAddress                      = errorsmod.Register(Codespace, 2, "no refund address provided for swap exact coin out")
	ErrUserSwapCoinInDenomMismatch          = errorsmod.Register(Codespace, 3, "user swap coin in denom differs from remaining coin denom")
	ErrSwapVenueNotFound                    = errorsmod.Register(Codespace, 4, "swap venue not found")
	ErrTimeout                              = errorsmod.Register(Codespace, 5, "timeout timestamp has passed")
	ErrInvalidFunds                         = errorsmod.Register(Codespace, 6, "invalid funds sent")
	ErrReceivedLessCoinFromSwapsThanMinCoin = errorsmod.Register(Codespace, 7, "received less coin from swaps than min coin")
	ErrDuplicateSwapVenueName               = errorsmod.Register(Codespace, 8, "duplicate swap venue name")
	ErrInvalidAction                        = errorsmod.Register(Codespace, 9, "exactly one post swap action must be set")
	ErrNoOutputToForward                    = errorsmod.Register(Codespace, 10, "no swap output to forward")
	ErrInvalidMsg                           = errorsmod.Register(Codespace, 11, "invalid message")
)
