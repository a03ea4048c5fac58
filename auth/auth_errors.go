package auth

import "fmt"

// Stage is a step of the OAuth callback.
type Stage string

const (
	StageReceived        Stage = "received"
	StageCodeValidated   Stage = "code_validated"
	StageTokensExchanged Stage = "tokens_exchanged"
	StageProfileFetched  Stage = "profile_fetched"
	StageProfileFallback Stage = "profile_fallback"
	StageAccountUpserted Stage = "account_upserted"
	StageTokenIssued     Stage = "token_issued"
)

// LoginError records the last stage a failed login completed.
type LoginError struct {
	Stage Stage
	Err   error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed after %s: %v", e.Stage, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user on the error page.
func (e *LoginError) Message() string {
	return e.Err.Error()
}

func failedAt(stage Stage, err error) error {
	return &LoginError{Stage: stage, Err: err}
}
