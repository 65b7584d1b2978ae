package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_FixedTable(t *testing.T) {
	raw := errors.New("rpc error: code = Unavailable desc = internal detail")
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unclassified", raw, MsgGeneric},
		{"wrapped auth", fmt.Errorf("login: %w", &AuthError{Kind: AuthNotFound, Err: raw}), MsgUserNotFound},
		{"unknown auth kind", &AuthError{Kind: "mystery"}, MsgAuthGeneric},
		{"capture cancelled", &CaptureError{Kind: CaptureCancelled}, MsgCaptureFailed},
		{"write update", writeErr(OpUpdate, StageDocument, raw), MsgSaveFailed},
		{"write delete", writeErr(OpDelete, StageBlob, raw), MsgDeleteFailed},
		{"write unknown op", writeErr("other", StageDocument, raw), MsgGeneric},
		{"read", &StoreReadError{Source: SourceLocal, Err: raw}, MsgLoadFailed},
		{"validation title", &ValidationError{Field: FieldTitle}, MsgTitleRequired},
		{"validation other", &ValidationError{Field: "zip"}, MsgInvalidInput},
		{"not authenticated", ErrNotAuthenticated, MsgNotAuthenticated},
		{"busy", fmt.Errorf("x: %w", ErrOperationInProgress), MsgBusy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Message(tc.err)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, got, "rpc error")
		})
	}
}

func TestValidators(t *testing.T) {
	var ve *ValidationError

	assert.ErrorAs(t, ValidateCredentials("", "x"), &ve)
	assert.Equal(t, FieldRequired, ve.Field)

	assert.ErrorAs(t, ValidateCredentials("not-an-email", "x"), &ve)
	assert.Equal(t, FieldEmail, ve.Field)

	assert.NoError(t, ValidateCredentials("a@b.io", "x"))

	assert.ErrorAs(t, ValidateRegistration("a@b.io", "12345", ""), &ve)
	assert.Equal(t, FieldPassword, ve.Field)
	assert.NoError(t, ValidateRegistration("a@b.io", "123456", "Ana"))

	assert.ErrorAs(t, ValidateTitle("   "), &ve)
	assert.Equal(t, MsgTitleRequired, Message(ve))
	assert.NoError(t, ValidateTitle("Sunset"))

	assert.Error(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("a@b.io"))
}
