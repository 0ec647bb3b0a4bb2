package auth

import (
	"context"

	"github.com/pickabook/pkb/internal/model"
)

// CheckDuplicateEmail reports whether email is already registered.
func (a *Authenticator) CheckDuplicateEmail(ctx context.Context, email string) (bool, error) {
	req := model.EmailRequest{Email: email}
	if err := a.validator.Struct(req); err != nil {
		return false, err
	}
	return a.service().CheckDuplicateEmail(ctx, req)
}

// SendCertificationCode asks the service to email a code to email.
func (a *Authenticator) SendCertificationCode(ctx context.Context, email string) error {
	req := model.EmailRequest{Email: email}
	if err := a.validator.Struct(req); err != nil {
		return err
	}
	return a.service().SendCertificationCode(ctx, req)
}

// VerifyCertificationCode confirms the emailed code.
func (a *Authenticator) VerifyCertificationCode(ctx context.Context, email, code string) error {
	req := model.VerifyCertificationRequest{Email: email, CertificationCode: code}
	if err := a.validator.Struct(req); err != nil {
		return err
	}
	return a.service().VerifyCertificationCode(ctx, req)
}

// Signup registers the account. It does not log in.
func (a *Authenticator) Signup(ctx context.Context, req model.SignupRequest) error {
	if !req.TermsAndConditions {
		return ErrTermsNotAccepted
	}
	if err := a.validator.Struct(req); err != nil {
		return err
	}
	return a.service().Signup(ctx, req)
}
