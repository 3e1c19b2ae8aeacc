package smtp

import "io"

// Client is the subset of *smtp.Client the sender needs, so transports
// can be faked in tests.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}
