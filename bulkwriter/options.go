package bulkwriter

import "github.com/dogechain-lab/docwriter/transport"

// SetOption customizes a Set call's merge behavior.
type SetOption func(*transport.UserWrite)

// WithMergeAll requests that Set only replace the fields present in the
// supplied data, leaving every other field on the document untouched.
func WithMergeAll() SetOption {
	return func(w *transport.UserWrite) {
		w.MergeAll = true
	}
}

// WithMergeFields requests that Set replace exactly the listed field
// paths, regardless of which fields are present in the supplied data.
func WithMergeFields(paths ...string) SetOption {
	return func(w *transport.UserWrite) {
		w.MergeFields = append([]string(nil), paths...)
	}
}
