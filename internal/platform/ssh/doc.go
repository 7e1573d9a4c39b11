// Package ssh runs commands on the cluster control host.
//
// A [Client] holds validated connection settings and a parsed key. [Client.Dial]
// opens one connection ([Conn]) that an operation reuses for all of its
// commands and closes on every exit path. Each [Conn.Run] opens a fresh
// session, streams output into a bounded tail buffer and classifies failures:
//
//   - [ConnectError]: the connection could not be established
//   - [ConnectionLostError]: the transport failed while a command was running
//   - [CommandError]: the command exited non-zero
//   - [TimeoutError]: the command outlived its timeout and was killed
//
// Connection errors are never retried here unless Config.MaxRetries is set.
//
// Security: Host key verification is disabled by default. Configure
// HostKeyCallback for hosts with known keys.
package ssh
