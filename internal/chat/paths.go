package chat

// Store layout. Rooms live under chats/<roomID>, membership under
// members/<roomID>/<userID>, and each room's append-only message log
// under messages/<roomID>/<messageID>.
const (
	chatsRoot    = "chats"
	membersRoot  = "members"
	messagesRoot = "messages"
)

// Initial lastMessage preview written at room creation.
const roomCreatedPlaceholder = "チャットルームが作成されました"

func roomPath(roomID string) string {
	return chatsRoot + "/" + roomID
}

func memberPath(roomID, userID string) string {
	return membersRoot + "/" + roomID + "/" + userID
}

func messagesPath(roomID string) string {
	return messagesRoot + "/" + roomID
}

func messagePath(roomID, messageID string) string {
	return messagesRoot + "/" + roomID + "/" + messageID
}
