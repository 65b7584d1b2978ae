package usecase

import "errors"

// Fixed user-facing messages. Raw provider text never reaches the user.
const (
	MsgGeneric          = "Something went wrong. Please try again."
	MsgAuthGeneric      = "Authentication error"
	MsgUserNotFound     = "User not found"
	MsgWrongPassword    = "Incorrect password"
	MsgEmailInUse       = "This email is already registered"
	MsgWeakPassword     = "The password is too weak"
	MsgInvalidEmail     = "Invalid email"
	MsgNotAuthenticated = "Please sign in first"
	MsgBusy             = "Please wait for the current operation to finish"
	MsgCaptureFailed    = "Error capturing the photo"
	MsgSaveFailed       = "Error saving the changes"
	MsgDeleteFailed     = "Error deleting the photo"
	MsgLoadFailed       = "Error loading the photos"
	MsgCartSaveFailed   = "Error saving the cart"
	MsgRegisterFailed   = "Error creating the account"
	MsgProfileFailed    = "Error updating the profile"
	MsgCheckoutFailed   = "There was a problem processing your order. Please try again."
	MsgEmptyCart        = "Add products to the cart before continuing"
	MsgRequiredFields   = "Please fill in all fields"
	MsgTitleRequired    = "The title is required"
	MsgInvalidInput     = "Please check the entered data"
)

var authMessages = map[AuthKind]string{
	AuthNotFound:          MsgUserNotFound,
	AuthWrongCredential:   MsgWrongPassword,
	AuthAlreadyRegistered: MsgEmailInUse,
	AuthWeakCredential:    MsgWeakPassword,
	AuthInvalidInput:      MsgInvalidEmail,
	AuthGeneric:           MsgAuthGeneric,
}

var writeMessages = map[WriteOp]string{
	OpCapture:  MsgCaptureFailed,
	OpUpdate:   MsgSaveFailed,
	OpDelete:   MsgDeleteFailed,
	OpSaveCart: MsgCartSaveFailed,
	OpRegister: MsgRegisterFailed,
	OpProfile:  MsgProfileFailed,
	OpCheckout: MsgCheckoutFailed,
}

var validationMessages = map[string]string{
	FieldEmail:    MsgInvalidEmail,
	FieldPassword: MsgWeakPassword,
	FieldTitle:    MsgTitleRequired,
	FieldRequired: MsgRequiredFields,
}

// Message selects the one fixed message for err. nil yields "".
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		ae *AuthError
		ce *CaptureError
		we *StoreWriteError
		re *StoreReadError
		ve *ValidationError
	)
	switch {
	case errors.As(err, &ve):
		if m, ok := validationMessages[ve.Field]; ok {
			return m
		}
		return MsgInvalidInput
	case errors.As(err, &ae):
		if m, ok := authMessages[ae.Kind]; ok {
			return m
		}
		return MsgAuthGeneric
	case errors.As(err, &ce):
		return MsgCaptureFailed
	case errors.As(err, &we):
		if m, ok := writeMessages[we.Op]; ok {
			return m
		}
		return MsgGeneric
	case errors.As(err, &re):
		return MsgLoadFailed
	case errors.Is(err, ErrNotAuthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, ErrOperationInProgress):
		return MsgBusy
	case errors.Is(err, ErrEmptyCart):
		return MsgEmptyCart
	}
	return MsgGeneric
}
