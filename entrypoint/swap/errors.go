package swap

import errorsmod "cosmossdk.io/errors"

// Codespace is shared by the swap helpers and every swap adapter
const Codespace = "swap"

var (
	ErrUnauthorized                       = errorsmod.Register(Codespace, 2, "unauthorized")
	ErrSwapOperationsEmpty                = errorsmod.Register(Codespace, 3, "swap operations cannot be empty")
	ErrSwapOperationsCoinInDenomMismatch  = errorsmod.Register(Codespace, 4, "first swap operation denom in must match coin in denom")
	ErrSwapOperationsCoinOutDenomMismatch = errorsmod.Register(Codespace, 5, "last swap operation denom out must match coin out denom")
	ErrInvalidSwap                        = errorsmod.Register(Codespace, 6, "exactly one of swap_exact_coin_in or swap_exact_coin_out must be set")
	ErrInvalidMsg                         = errorsmod.Register(Codespace, 7, "invalid message")
	ErrQueryNotSupported                  = errorsmod.Register(Codespace, 8, "query not supported by this swap venue")
	ErrInvalidPoolID                      = errorsmod.Register(Codespace, 9, "invalid pool id")
	ErrPaymentError                       = errorsmod.Register(Codespace, 10, "exactly one coin must be sent")
)
