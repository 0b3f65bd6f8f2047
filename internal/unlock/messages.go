package unlock

// Message IDs of user-visible texts.
const (
	MsgSecretMismatch     = "SecretMismatch"
	MsgVerificationFailed = "VerificationFailed"
	MsgBiometricFailed    = "BiometricFailed"
	MsgUnexpectedError    = "UnexpectedError"
)

// Messages turns a message ID and its template data into display text.
type Messages interface {
	Localize(id string, data map[string]any) string
}

type englishMessages struct{}

func (englishMessages) Localize(id string, data map[string]any) string {
	switch id {
	case MsgSecretMismatch:
		return "Incorrect password"
	case MsgVerificationFailed:
		return "Could not verify the password"
	case MsgBiometricFailed:
		if m, ok := data["Message"].(string); ok && m != "" {
			return "Biometric verification failed: " + m
		}
		return "Biometric verification failed"
	case MsgUnexpectedError:
		return "Something went wrong, please try again"
	default:
		return id
	}
}
