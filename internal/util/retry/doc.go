// Package retry bounds repeated attempts at remote operations.
//
// [WithExponentialBackoff] retries transient failures such as SSH dials when
// the operator opts into it. [Poll] waits for an observed cluster state
// (volume bound, pod ready, endpoint assigned) at a fixed interval until a
// deadline or attempt budget runs out, and reports the last observed state
// in a [DeadlineExceededError].
package retry
