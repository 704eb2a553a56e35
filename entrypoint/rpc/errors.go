package rpc

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/fees"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/host"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/wasm"
)

var validationErrors = []error{
	swap.ErrSwapOperationsEmpty,
	swap.ErrSwapOperationsCoinInDenomMismatch,
	swap.ErrSwapOperationsCoinOutDenomMismatch,
	swap.ErrInvalidSwap,
	swap.ErrInvalidMsg,
	swap.ErrInvalidPoolID,
	swap.ErrPaymentError,
	router.ErrNoRefundAddress,
	router.ErrUserSwapCoinInDenomMismatch,
	router.ErrInvalidFunds,
	router.ErrTimeout,
	router.ErrInvalidAction,
	router.ErrInvalidMsg,
	fees.ErrInvalidBasisPoints,
	host.ErrInvalidAddress,
	wasm.ErrInvalidCoin,
}

var notFoundErrors = []error{
	router.ErrSwapVenueNotFound,
	host.ErrContractNotFound,
	swap.ErrQueryNotSupported,
}

// connectCode maps the contract error taxonomy onto connect codes.
// Anything not recognised is a downstream failure.
func connectCode(err error) connect.Code {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code()
	}
	if errors.Is(err, swap.ErrUnauthorized) {
		return connect.CodePermissionDenied
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return connect.CodeInvalidArgument
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return connect.CodeNotFound
		}
	}
	if errors.Is(err, host.ErrPanic) {
		return connect.CodeInternal
	}
	if errors.Is(err, fees.ErrOverflow) || errors.Is(err, router.ErrReceivedLessCoinFromSwapsThanMinCoin) {
		return connect.CodeFailedPrecondition
	}
	return connect.CodeUnavailable
}

func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(connectCode(err), err)
}
