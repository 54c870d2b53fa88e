package constant

// Shared slog attribute keys.
const (
	Error          = "error"
	UserID         = "user_id"
	RoomID         = "room_id"
	ConversationID = "conversation_id"
	AppointmentID  = "appointment_id"
)
