// Package rule defines the redaction rule model: what happens to a single
// metadata tag or image when a container is redacted, and how a rule file
// merges against a built-in profile.
package rule

// Kind names the scalar class a CheckType action expects from the value it
// guards. The vocabulary is open and interpreted by whichever plan
// executor resolves the check: pkg/plan's TIFF/SVS executor uses
// "integer"/"number"/"text"/"rational" (the Python-level types the
// original container library exposes). Its DICOM executor does not read
// Kind or Count: it checks the value against the class its declared VR
// expects. The constants below name those classes.
type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindList   Kind = "list"
	KindBytes  Kind = "bytes"
)

// Action is the sealed set of things a rule can do to a matched tag or
// image. Every concrete type below implements it; the isAction method
// exists only to close the set to this package's callers.
type Action interface {
	isAction()
}

// Keep leaves the tag's value untouched.
type Keep struct{}

// Delete removes the tag entirely from the container.
type Delete struct{}

// Replace overwrites the tag's value with a fixed literal.
type Replace struct {
	Value any
}

// Empty replaces the tag's value with the zero value appropriate to its
// type (empty string, zero-length array) while keeping the tag present.
type Empty struct{}

// ReplaceUID replaces a UID-valued tag with a new UID, consistent within a
// batch via a shared uidmap.Map.
type ReplaceUID struct{}

// ReplaceDummy replaces the tag's value with a neutral placeholder chosen
// by the engine from the value's VR (an empty string, zero, an empty
// sequence or empty bytes), distinct from Replace in that the placeholder
// is not supplied in the rule.
type ReplaceDummy struct{}

// CheckType asserts the matched value has the given Kind (and, when
// Count > 0, exactly that many components) before continuing to apply the
// rest of the rule; a mismatch is treated as PHI of unknown shape and
// deleted rather than risking a false negative.
type CheckType struct {
	Kind  Kind
	Count int
}

// ModifyDate coarsens a date/time-valued tag instead of deleting it: the
// year is kept, month and day become January 1, times become midnight and
// a UTC offset becomes +0000, removing the absolute calendar date.
type ModifyDate struct{}

func (Keep) isAction()         {}
func (Delete) isAction()       {}
func (Replace) isAction()      {}
func (Empty) isAction()        {}
func (ReplaceUID) isAction()   {}
func (ReplaceDummy) isAction() {}
func (CheckType) isAction()    {}
func (ModifyDate) isAction()   {}
