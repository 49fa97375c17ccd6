package logger

const (
	FieldChatID  = "chat_id"
	FieldSender  = "sender"
	FieldCommand = "command"
	FieldPreview = "preview"
	FieldPath    = "path"
	FieldError   = "error"
)
