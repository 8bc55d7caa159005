package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthExpiredWithWrappedError(t *testing.T) {
	cause := errors.New("401 Unauthorized")
	err := fmt.Errorf("sheet 1 (%w)", &AuthExpiredError{Operation: "fetching report", Cause: cause})

	assert.True(t, IsAuthExpired(err))
	assert.False(t, IsLinkage(err))
	assert.ErrorIs(t, err, cause)
}

func TestAuthExpiredErrorMessage(t *testing.T) {
	err := &AuthExpiredError{
		Operation:        "fetching report with ID",
		AuthorizationURL: "https://accounts.google.com/o/oauth2/auth?x=y",
		Cause:            errors.New("timeout"),
	}

	expected := "error fetching report with ID - DBM API credentials expired (timeout). Please re-authorise at https://accounts.google.com/o/oauth2/auth?x=y"

	assert.Equal(t, expected, err.Error())
}

func TestTaxonomyIsDistinct(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
	}{
		{&LinkageError{SheetID: 1}, IsLinkage},
		{&IdentityNotFoundError{SheetID: 1, BucketName: "x_report"}, IsIdentityNotFound},
		{&EmptyResponseError{URL: "u"}, IsEmptyResponse},
		{&MalformedResponseError{URL: "u"}, IsMalformedResponse},
		{&ScheduleOrphanedError{TriggerID: "t"}, IsScheduleOrphaned},
	}

	for _, test := range tests {
		assert.True(t, test.check(test.err), "%v", test.err)
		assert.False(t, IsAuthExpired(test.err), "%v", test.err)
	}
}
