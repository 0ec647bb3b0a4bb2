package model

// Session is the credential returned by login and kept between runs.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpireTime   string `json:"expireTime"`
}

// Profile describes the logged-in account.
type Profile struct {
	ID          *int64 `json:"id,omitempty"`
	Email       string `json:"email"`
	Nickname    string `json:"nickname"`
	BrowserNoti *bool  `json:"browserNoti,omitempty"`
	EmailNoti   *bool  `json:"emailNoti,omitempty"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the body of a signup call.
type SignupRequest struct {
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8"`
	Nickname           string `json:"nickname" validate:"required,max=30"`
	CertificationCode  string `json:"certificationCode" validate:"required"`
	TermsAndConditions bool   `json:"termsAndConditions"`
}

// EmailRequest carries only an email address (send code, duplicate check).
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCertificationRequest confirms an emailed certification code.
type VerifyCertificationRequest struct {
	Email             string `json:"email" validate:"required,email"`
	CertificationCode string `json:"certificationCode" validate:"required"`
}

// DuplicateEmail is the payload of the duplicate email check.
type DuplicateEmail struct {
	Duplicate bool `json:"duplicate"`
}

// ResetNicknameRequest changes the account nickname.
type ResetNicknameRequest struct {
	Nickname string `json:"nickname" validate:"required,max=30"`
}

// ResetPasswordRequest changes the account password.
type ResetPasswordRequest struct {
	Password       string `json:"password" validate:"required,min=8"`
	BeforePassword string `json:"beforePassword" validate:"required"`
}
