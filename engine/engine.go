// Package engine holds the mutation engine for the social graph and post
// interactions: like toggling, comment upsert and removal, symmetric
// connect/block, and cascading user deletion.
//
// Every operation is an unserialized read-modify-write against the entity
// store. There is no cross-request locking; two concurrent mutations of the
// same entity race and the later write wins.
package engine

// Outcome reports how a successful operation resolved. Soft no-ops (already
// connected, nothing to delete) are successes with Applied false, never
// errors.
type Outcome struct {
	Applied bool
	Detail  string
}

func applied(detail string) Outcome {
	return Outcome{Applied: true, Detail: detail}
}

func noOp(detail string) Outcome {
	return Outcome{Applied: false, Detail: detail}
}
