package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches internal/handler auth middleware keys)
	FieldUserID = "user_id"
	FieldEmail  = "email"

	// Chat
	FieldRoomID    = "room_id"
	FieldMessageID = "message_id"
	FieldGymID     = "gym_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
