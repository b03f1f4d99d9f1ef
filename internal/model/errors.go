package model

import "fmt"

// ProgramError is a symbolic ledger failure. Sentinels are compared with
// errors.Is; details are attached by wrapping with fmt.Errorf("...: %w").
type ProgramError struct {
	Code    uint32 `json:"code"`
	Name    string `json:"error"`
	Message string `json:"message"`
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

var (
	ErrUnauthorized        = &ProgramError{Code: 6000, Name: "Unauthorized", Message: "signer is not allowed to perform this operation"}
	ErrNotFound            = &ProgramError{Code: 6001, Name: "NotFound", Message: "account or drt type not found"}
	ErrAlreadyInitialized  = &ProgramError{Code: 6002, Name: "AlreadyInitialized", Message: "account already initialized"}
	ErrAlreadyMinted       = &ProgramError{Code: 6003, Name: "AlreadyMinted", Message: "drt supply already minted"}
	ErrNotMinted           = &ProgramError{Code: 6004, Name: "NotMinted", Message: "drt supply not minted yet"}
	ErrSoldOut             = &ProgramError{Code: 6005, Name: "SoldOut", Message: "no drt units left in the vault"}
	ErrInsufficientFunds   = &ProgramError{Code: 6006, Name: "InsufficientFunds", Message: "not enough lamports"}
	ErrInsufficientBalance = &ProgramError{Code: 6007, Name: "InsufficientBalance", Message: "not enough tokens"}
	ErrArithmetic          = &ProgramError{Code: 6008, Name: "ArithmeticError", Message: "arithmetic overflow, underflow or division by zero"}
	ErrDuplicateDrtType    = &ProgramError{Code: 6009, Name: "DuplicateDrtType", Message: "drt type listed more than once"}
	ErrInvalidConfig       = &ProgramError{Code: 6010, Name: "InvalidConfig", Message: "invalid instruction arguments"}
	ErrInvalidAccountData  = &ProgramError{Code: 6011, Name: "InvalidAccountData", Message: "account data does not match the expected layout"}
	ErrAlreadyProcessed    = &ProgramError{Code: 6012, Name: "AlreadyProcessed", Message: "transaction signature already processed"}
)

// ProgramErrors lists every symbolic error, in code order.
var ProgramErrors = []*ProgramError{
	ErrUnauthorized,
	ErrNotFound,
	ErrAlreadyInitialized,
	ErrAlreadyMinted,
	ErrNotMinted,
	ErrSoldOut,
	ErrInsufficientFunds,
	ErrInsufficientBalance,
	ErrArithmetic,
	ErrDuplicateDrtType,
	ErrInvalidConfig,
	ErrInvalidAccountData,
	ErrAlreadyProcessed,
}
