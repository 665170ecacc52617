package status

// Progress is returned as a struct so wrappers can summarize the current
// status without parsing log output.
type Progress struct {
	CurrentState State  // current state, i.e. Auditing
	Summary      string // text based representation, i.e. "12/40 tables 30.00% auditing"
}
