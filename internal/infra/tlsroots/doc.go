// Package tlsroots builds client TLS configurations from PEM files.
//
// Pool starts from the system roots (or empty) and adds CA certificates.
// ClientConfig turns a Config section into a *tls.Config for outbound
// connections such as the MongoDB backend.
package tlsroots
