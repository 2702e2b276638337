package service

import "crypto/subtle"

// Authenticator checks submitted credentials against the single configured
// admin pair. Passwords are compared as plain text.
type Authenticator struct {
	username string
	password string
}

func NewAuthenticator(username, password string) *Authenticator {
	return &Authenticator{username: username, password: password}
}

// Check reports whether both username and password match. Both comparisons
// always run so the result does not reveal which one failed.
func (a *Authenticator) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password))
	return userOK&passOK == 1 && a.password != ""
}
