package domain

import "fmt"

// ConnectionDescriptor holds the credentials parsed from a connection string.
// It lives for a single backup or restore call.
type ConnectionDescriptor struct {
	Scheme   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (c ConnectionDescriptor) String() string {
	return fmt.Sprintf("%s://%s:***@%s:%d/%s", c.Scheme, c.User, c.Host, c.Port, c.Database)
}
