package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pickabook/pkb/internal/model"
)

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	var session *model.Session
	if err := c.do(ctx, http.MethodPost, "/user/login", nil, req, &session); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return session, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) error {
	if err := c.do(ctx, http.MethodPost, "/user/signup", nil, req, nil); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// SendCertificationCode asks the service to email a certification code.
func (c *Client) SendCertificationCode(ctx context.Context, req model.EmailRequest) error {
	if err := c.do(ctx, http.MethodPost, "/user/email/send", nil, req, nil); err != nil {
		return fmt.Errorf("send certification code: %w", err)
	}
	return nil
}

// VerifyCertificationCode confirms the emailed code.
func (c *Client) VerifyCertificationCode(ctx context.Context, req model.VerifyCertificationRequest) error {
	if err := c.do(ctx, http.MethodPost, "/user/email/certification", nil, req, nil); err != nil {
		return fmt.Errorf("verify certification code: %w", err)
	}
	return nil
}

// CheckDuplicateEmail reports whether the email is already registered.
func (c *Client) CheckDuplicateEmail(ctx context.Context, req model.EmailRequest) (bool, error) {
	var res model.DuplicateEmail
	if err := c.do(ctx, http.MethodPost, "/user/email/duplicate", nil, req, &res); err != nil {
		return false, fmt.Errorf("check duplicate email: %w", err)
	}
	return res.Duplicate, nil
}

// Profile returns the logged-in account.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var profile *model.Profile
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &profile); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// ResetNickname changes the account nickname.
func (c *Client) ResetNickname(ctx context.Context, req model.ResetNicknameRequest) error {
	if err := c.do(ctx, http.MethodPut, "/setting/nickname", nil, req, nil); err != nil {
		return fmt.Errorf("reset nickname: %w", err)
	}
	return nil
}

// ResetPassword changes the account password.
func (c *Client) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	if err := c.do(ctx, http.MethodPut, "/setting/password", nil, req, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// DeleteAccount removes the logged-in account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/user", nil, nil, nil); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
