package auth

// Client-visible messages. They are matched verbatim by clients and tests.
const (
	MsgAllFieldsRequired        = "All fields required"
	MsgInvalidCredentials       = "Invalid username or password"
	MsgLoginSuccess             = "Login successful"
	MsgRegisterSuccess          = "Registration successful"
	MsgUsernameShort            = "Username too short"
	MsgPasswordShort            = "Password too short"
	MsgEmailInvalid             = "Invalid email format"
	MsgDuplicateUser            = "Username or email already exists"
	MsgProfileUpdateSuccess     = "Profile updated successfully"
	MsgCurrentPasswordIncorrect = "Current password is incorrect"
	MsgUserNotFound             = "User not found"
	MsgNoChangesMade            = "No changes were made"
	MsgProfileDeleteSuccess     = "Profile deleted successfully"
	MsgServerError              = "Server error"

	// Used by the HTTP layer, not the service.
	MsgServerErrorOccurred = "Server error occurred"
	MsgInvalidDataFormat   = "Invalid data format"
)
