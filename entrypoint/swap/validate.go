package swap

// ValidateSwapOperations checks the route starts at coinInDenom and ends at
// coinOutDenom. Joins between hops are left to the venue which fails on its own.
func ValidateSwapOperations(operations []SwapOperation, coinInDenom, coinOutDenom string) error {
	if len(operations) == 0 {
		return ErrSwapOperationsEmpty
	}

	if operations[0].DenomIn != coinInDenom {
		return ErrSwapOperationsCoinInDenomMismatch
	}

	if operations[len(operations)-1].DenomOut != coinOutDenom {
		return ErrSwapOperationsCoinOutDenomMismatch
	}

	return nil
}
