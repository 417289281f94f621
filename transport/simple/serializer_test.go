package simple

import (
	"testing"

	"github.com/dogechain-lab/docwriter/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsConflictingPaths(t *testing.T) {
	t.Parallel()

	s := New()

	err := s.ValidateSet(transport.UserWrite{
		DocumentPath: "docs/1",
		Data: map[string]interface{}{
			"a":   1,
			"a.b": 2,
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingFieldPath)
}

func TestValidateRejectsConflictingMergeOptions(t *testing.T) {
	t.Parallel()

	s := New()

	err := s.ValidateSet(transport.UserWrite{
		DocumentPath: "docs/1",
		Data:         map[string]interface{}{"a": 1},
		MergeAll:     true,
		MergeFields:  []string{"a"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingMergeOptions)
}

func TestProjectUpdateAlwaysAttachesExistsPrecondition(t *testing.T) {
	t.Parallel()

	s := New()

	write, err := s.ProjectUpdate(transport.UserWrite{
		DocumentPath: "docs/1",
		Data:         map[string]interface{}{"a": 1},
	})

	require.NoError(t, err)
	require.NotNil(t, write.CurrentDocument)
	assert.True(t, write.CurrentDocument.HasExists)
	assert.True(t, write.CurrentDocument.Exists)
}

func TestProjectUpdateHonorsCallerPrecondition(t *testing.T) {
	t.Parallel()

	s := New()

	write, err := s.ProjectUpdate(transport.UserWrite{
		DocumentPath: "docs/1",
		Data:         map[string]interface{}{"a": 1},
		Precondition: &transport.Precondition{HasExists: true, Exists: false},
	})

	require.NoError(t, err)
	require.NotNil(t, write.CurrentDocument)
	assert.False(t, write.CurrentDocument.Exists)
}

func TestProjectSetMergeAllBuildsMask(t *testing.T) {
	t.Parallel()

	s := New()

	write, err := s.ProjectSet(transport.UserWrite{
		DocumentPath: "docs/1",
		Data:         map[string]interface{}{"a": 1, "b": 2},
		MergeAll:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, write.UpdateMask)
}

func TestProjectSetServerTimestampBecomesTransform(t *testing.T) {
	t.Parallel()

	s := New()

	write, err := s.ProjectSet(transport.UserWrite{
		DocumentPath: "docs/1",
		Data: map[string]interface{}{
			"updatedAt": ServerTimestampValue(),
			"name":      "bob",
		},
	})

	require.NoError(t, err)
	assert.Len(t, write.Transforms, 1)
	assert.Equal(t, "updatedAt", write.Transforms[0].FieldPath)
	assert.Equal(t, transport.TransformServerTimestamp, write.Transforms[0].Kind)
	assert.NotContains(t, write.Fields, "updatedAt")
	assert.Equal(t, "bob", write.Fields["name"])
}

func TestValidateCreateRejectsPrecondition(t *testing.T) {
	t.Parallel()

	s := New()

	err := s.ValidateCreate(transport.UserWrite{
		DocumentPath: "docs/1",
		Data:         map[string]interface{}{"a": 1},
		Precondition: &transport.Precondition{HasExists: true, Exists: true},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDisallowedPrecondition)
}
