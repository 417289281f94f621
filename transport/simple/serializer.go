// Package simple provides a reference transport.Serializer good enough to
// exercise the scheduler end-to-end: plain-map validation, conflicting or
// prefixed field-path rejection, and precondition construction. It does
// not implement the full Firestore-style sentinel/transform grammar; it
// recognizes a small, explicit set of sentinels (see Sentinel).
package simple

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dogechain-lab/docwriter/transport"
)

// Sentinel marks a field value that should become a server-side transform
// instead of a literal value.
type Sentinel int

const (
	// ServerTimestamp stamps the field with the commit time.
	ServerTimestamp Sentinel = iota
)

// sentinelValue is the placeholder callers put in UserWrite.Data to
// request a transform. It is unexported so only this package's
// constructors can produce one.
type sentinelValue struct {
	kind transform
}

type transform struct {
	kind    transport.TransformKind
	operand interface{}
}

// ServerTimestampValue returns a placeholder to put in UserWrite.Data that
// the serializer turns into a ServerTimestamp transform.
func ServerTimestampValue() interface{} {
	return sentinelValue{kind: transform{kind: transport.TransformServerTimestamp}}
}

// IncrementValue returns a placeholder that turns into an Increment
// transform by n.
func IncrementValue(n interface{}) interface{} {
	return sentinelValue{kind: transform{kind: transport.TransformIncrement, operand: n}}
}

// ArrayUnionValue returns a placeholder that turns into an ArrayUnion
// transform.
func ArrayUnionValue(elements ...interface{}) interface{} {
	return sentinelValue{kind: transform{kind: transport.TransformArrayUnion, operand: elements}}
}

// ArrayRemoveValue returns a placeholder that turns into an ArrayRemove
// transform.
func ArrayRemoveValue(elements ...interface{}) interface{} {
	return sentinelValue{kind: transform{kind: transport.TransformArrayRemove, operand: elements}}
}

// Serializer is the reference transport.Serializer implementation.
type Serializer struct{}

// New returns a ready-to-use reference Serializer.
func New() *Serializer {
	return &Serializer{}
}

func validatePaths(data map[string]interface{}) error {
	paths := make([]string, 0, len(data))
	for k := range data {
		paths = append(paths, k)
	}

	sort.Strings(paths)

	for i := 1; i < len(paths); i++ {
		prev, cur := paths[i-1], paths[i]
		if cur == prev || strings.HasPrefix(cur, prev+".") {
			return fmt.Errorf("%w: %q conflicts with %q", ErrConflictingFieldPath, prev, cur)
		}
	}

	return nil
}

func (s *Serializer) validateCommon(w transport.UserWrite, requireData bool) error {
	if w.DocumentPath == "" {
		return ErrEmptyDocumentPath
	}

	if requireData {
		if w.Data == nil {
			return fmt.Errorf("%w: nil data", ErrInvalidUserData)
		}

		if err := validatePaths(w.Data); err != nil {
			return err
		}
	}

	if w.MergeAll && len(w.MergeFields) > 0 {
		return ErrConflictingMergeOptions
	}

	if w.Precondition != nil && w.Precondition.HasExists && !w.Precondition.LastUpdateTime.IsZero() {
		return ErrConflictingPrecondition
	}

	return nil
}

func (s *Serializer) ValidateCreate(w transport.UserWrite) error {
	if err := s.validateCommon(w, true); err != nil {
		return err
	}

	if w.Precondition != nil {
		return fmt.Errorf("%w: create does not accept a precondition", ErrDisallowedPrecondition)
	}

	return nil
}

func (s *Serializer) ValidateSet(w transport.UserWrite) error {
	if err := s.validateCommon(w, true); err != nil {
		return err
	}

	if w.Precondition != nil {
		return fmt.Errorf("%w: set does not accept a precondition", ErrDisallowedPrecondition)
	}

	return nil
}

func (s *Serializer) ValidateUpdate(w transport.UserWrite) error {
	if err := s.validateCommon(w, true); err != nil {
		return err
	}

	if len(w.Data) == 0 {
		return fmt.Errorf("%w: update requires at least one field", ErrInvalidUserData)
	}

	return nil
}

func (s *Serializer) ValidateDelete(w transport.UserWrite) error {
	return s.validateCommon(w, false)
}

func splitFields(data map[string]interface{}) (fields map[string]interface{}, transforms []transport.FieldTransform) {
	fields = make(map[string]interface{}, len(data))

	paths := make([]string, 0, len(data))
	for k := range data {
		paths = append(paths, k)
	}

	sort.Strings(paths)

	for _, path := range paths {
		v := data[path]

		if sv, ok := v.(sentinelValue); ok {
			transforms = append(transforms, transport.FieldTransform{
				FieldPath: path,
				Kind:      sv.kind.kind,
				Operand:   sv.kind.operand,
			})

			continue
		}

		fields[path] = v
	}

	return fields, transforms
}

func wirePrecondition(p *transport.Precondition) *transport.Precondition {
	if p == nil {
		return nil
	}

	cp := *p

	return &cp
}

func (s *Serializer) ProjectCreate(w transport.UserWrite) (transport.Write, error) {
	fields, transforms := splitFields(w.Data)

	return transport.Write{
		DocumentPath:    w.DocumentPath,
		Fields:          fields,
		Transforms:      transforms,
		CurrentDocument: &transport.Precondition{HasExists: true, Exists: false},
	}, nil
}

func (s *Serializer) ProjectSet(w transport.UserWrite) (transport.Write, error) {
	fields, transforms := splitFields(w.Data)

	write := transport.Write{
		DocumentPath: w.DocumentPath,
		Fields:       fields,
		Transforms:   transforms,
	}

	switch {
	case w.MergeAll:
		mask := make([]string, 0, len(w.Data))
		for k := range w.Data {
			mask = append(mask, k)
		}

		sort.Strings(mask)
		write.UpdateMask = mask
	case len(w.MergeFields) > 0:
		mask := append([]string(nil), w.MergeFields...)
		sort.Strings(mask)
		write.UpdateMask = mask
	}

	return write, nil
}

// ProjectUpdate always attaches an exists:true precondition unless the
// caller supplied their own, resolving spec.md §9's open question
// explicitly for this Serializer: update must never silently create a
// document that does not exist.
func (s *Serializer) ProjectUpdate(w transport.UserWrite) (transport.Write, error) {
	fields, transforms := splitFields(w.Data)

	mask := make([]string, 0, len(w.Data))
	for k := range w.Data {
		mask = append(mask, k)
	}

	sort.Strings(mask)

	precondition := wirePrecondition(w.Precondition)
	if precondition == nil {
		precondition = &transport.Precondition{HasExists: true, Exists: true}
	}

	return transport.Write{
		DocumentPath:    w.DocumentPath,
		Fields:          fields,
		UpdateMask:      mask,
		Transforms:      transforms,
		CurrentDocument: precondition,
	}, nil
}

func (s *Serializer) ProjectDelete(w transport.UserWrite) (transport.Write, error) {
	return transport.Write{
		DocumentPath:    w.DocumentPath,
		IsDelete:        true,
		CurrentDocument: wirePrecondition(w.Precondition),
	}, nil
}
