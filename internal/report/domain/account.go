package domain

import "fmt"

// DefaultIMAPPort is used when an account does not set one
const DefaultIMAPPort = 993

// Account is one mailbox polled by the orchestrator
type Account struct {
	Label    string `json:"name" mapstructure:"name"`
	IMAPHost string `json:"imapServer" mapstructure:"imapServer"`
	IMAPPort int    `json:"imapPort" mapstructure:"imapPort"`
	Username string `json:"email" mapstructure:"email"`
	Secret   string `json:"password" mapstructure:"password"`
}

// Normalized returns a copy with defaults applied
func (a Account) Normalized() Account {
	if a.Label == "" {
		a.Label = a.Username
	}
	if a.IMAPPort == 0 {
		a.IMAPPort = DefaultIMAPPort
	}
	return a
}

// Address returns host:port for dialing
func (a Account) Address() string {
	return fmt.Sprintf("%s:%d", a.IMAPHost, a.IMAPPort)
}
