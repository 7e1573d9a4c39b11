// Package testing provides test doubles, builders and fixtures shared by
// package tests.
//
//   - SpecBuilder: fluent builder for workload specs
//   - FakeRemote: scripted ssh.Remote that records every command
//   - FakeConnector: hands out a FakeRemote and counts connections
//   - Kubeconfig: a minimal, parseable kubeconfig blob
//
// Usage:
//
//	remote := testing.NewFakeRemote().
//	    On("kubectl get namespace", testing.Reply{ExitCode: 1})
//	spec := testing.NewSpecBuilder().WithKind(workload.KindMySQL).Build()
package testing
