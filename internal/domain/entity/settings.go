package entity

// AuthSettings are the runtime feature flags of the authentication module.
// They live in the configs table under the "auth" namespace and are read on
// every call that depends on them, so operators can flip them without a
// restart.
type AuthSettings struct {
	EnableLoginPassword    bool     `json:"enable_login_password"`
	EnableRegisterPassword bool     `json:"enable_register_password"`
	EnableOAuth            bool     `json:"enable_oauth"`
	ValidateEmail          bool     `json:"validate_email"`
	AllowedEmailDomains    []string `json:"allowed_email_domains,omitempty"`
}

// EmailDomainAllowed reports whether the given email address falls within the
// allowed domain list. An empty list allows every domain.
func (s *AuthSettings) EmailDomainAllowed(email string) bool {
	if len(s.AllowedEmailDomains) == 0 {
		return true
	}
	at := -1
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			at = i

			break
		}
	}
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range s.AllowedEmailDomains {
		if allowed == domain {
			return true
		}
	}

	return false
}
