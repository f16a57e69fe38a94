package entity

import "time"

// TokenPurpose values match the integer encoding of the tokens.type column.
type TokenPurpose int

const (
	TokenEmailVerification TokenPurpose = 0
	TokenPasswordReset     TokenPurpose = 1
)

func (p TokenPurpose) String() string {
	switch p {
	case TokenEmailVerification:
		return "EMAIL_VERIFICATION"
	case TokenPasswordReset:
		return "PASSWORD_RESET"
	default:
		return "UNKNOWN"
	}
}

type SingleUseToken struct {
	Token     string
	UserID    uint64
	Purpose   TokenPurpose
	CreatedAt time.Time
}
