package domain

// Room is a conversation thread between a user and a gym. The room ID is
// the store key of the record, not a field of the stored value.
type Room struct {
	GymID           string `json:"gymId"`
	GymName         string `json:"gymName"`
	Title           string `json:"title"`
	LastMessage     string `json:"lastMessage,omitempty"`
	LastMessageTime int64  `json:"lastMessageTime,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// RoomView is a room as presented to the member list, with its store key
// attached.
type RoomView struct {
	ID              string `json:"id"`
	GymID           string `json:"gym_id"`
	GymName         string `json:"gym_name"`
	Title           string `json:"title"`
	LastMessage     string `json:"last_message,omitempty"`
	LastMessageTime int64  `json:"last_message_time,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// View attaches the store key to a room record.
func (r Room) View(id string) RoomView {
	return RoomView{
		ID:              id,
		GymID:           r.GymID,
		GymName:         r.GymName,
		Title:           r.Title,
		LastMessage:     r.LastMessage,
		LastMessageTime: r.LastMessageTime,
		Timestamp:       r.Timestamp,
	}
}

// Message is a single immutable chat entry in a room's log.
// Timestamp is unix epoch milliseconds.
type Message struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Timestamp  int64  `json:"timestamp"`
}

// CreateRoomRequest is the payload for opening a chat with a gym.
type CreateRoomRequest struct {
	GymID   string `json:"gym_id" binding:"required"`
	GymName string `json:"gym_name" binding:"required"`
}

// SendMessageRequest is the payload for posting a message to a room.
type SendMessageRequest struct {
	Text string `json:"text"`
}
