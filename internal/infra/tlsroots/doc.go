// Package tlsroots loads TLS material for the server and the CLI.
//
// The server side is a Reloader: it serves the configured certificate
// through tls.Config.GetCertificate and swaps it in place when the cert or
// key file changes on disk, so rotated certificates are picked up without
// a restart. A reload that fails keeps the previous certificate.
//
// The client side builds root pools from the system roots plus optional
// PEM CA files, used by simsync-cli for servers behind a private CA.
package tlsroots
