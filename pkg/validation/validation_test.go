package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title    string  `json:"title" validate:"required,max=10"`
	Status   *string `json:"status" validate:"omitempty,casestatus"`
	Category string  `json:"category" validate:"omitempty,doccategory"`
	LawyerID string  `json:"lawyer_id" validate:"omitempty,uuid"`
}

func str(s string) *string { return &s }

func Test_Validate_UsesJSONFieldNames(t *testing.T) {
	errs, err := Validate(sample{})
	require.NoError(t, err)
	require.Contains(t, errs, "title")
	assert.Equal(t, []string{"This field is required"}, errs["title"])
}

func Test_Validate_CaseStatus(t *testing.T) {
	errs, err := Validate(sample{Title: "ok", Status: str("ARCHIVED")})
	require.NoError(t, err)
	require.Contains(t, errs, "status")

	// Lowercase and mixed case are accepted; handlers uppercase later.
	for _, s := range []string{"pending", "Active", "CLOSED"} {
		errs, err = Validate(sample{Title: "ok", Status: str(s)})
		require.NoError(t, err)
		assert.Nil(t, errs, "status %q should pass", s)
	}
}

func Test_Validate_DocumentCategory(t *testing.T) {
	errs, err := Validate(sample{Title: "ok", Category: "evidence"})
	require.NoError(t, err)
	assert.Nil(t, errs)

	errs, err = Validate(sample{Title: "ok", Category: "MIXTAPE"})
	require.NoError(t, err)
	require.Contains(t, errs, "category")
}

func Test_Validate_UUID(t *testing.T) {
	errs, err := Validate(sample{Title: "ok", LawyerID: "not-a-uuid"})
	require.NoError(t, err)
	require.Contains(t, errs, "lawyer_id")
	assert.Equal(t, []string{"Invalid UUID format"}, errs["lawyer_id"])
}
