package domain

// Session is the identity a request acts under. It is always rebuilt from the
// account directory after the bearer token is verified, never taken from the
// request body.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	FullName string `json:"namaLengkap"`
}

// SessionFor builds the session view of an account.
func SessionFor(a *Account) Session {
	return Session{Username: a.Username, Role: a.Role, FullName: a.FullName}
}

// DisplayName is the name entries created under this session are shown with.
func (s Session) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Username
}
