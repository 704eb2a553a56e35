package fees

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

const Codespace = "fees"

var (
	ErrOverflow           = errorsmod.Register(Codespace, 2, "arithmetic overflow")
	ErrInvalidBasisPoints = errorsmod.Register(Codespace, 3, "invalid basis points fee")
)

type OverflowOperation string

const (
	OverflowAdd OverflowOperation = "Add"
	OverflowSub OverflowOperation = "Sub"
	OverflowMul OverflowOperation = "Mul"
)

// OverflowError reports a checked arithmetic failure together with both operands
type OverflowError struct {
	Operation OverflowOperation
	Operand1  string
	Operand2  string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("Cannot %s with %s and %s", e.Operation, e.Operand1, e.Operand2)
}

func (e *OverflowError) Unwrap() error {
	return ErrOverflow
}
