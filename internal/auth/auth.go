package auth

// Service decides who belongs to the admin audience: members of the
// configured admin chats and explicitly listed admin users.
type Service struct {
	adminChats map[int64]bool
	adminUsers map[int64]bool
	notifyChat int64
}

// New builds the admin audience. The first admin chat receives
// form submissions and reports.
func New(adminChats, adminUsers []int64) *Service {
	s := &Service{adminChats: make(map[int64]bool), adminUsers: make(map[int64]bool)}
	for _, id := range adminChats {
		s.adminChats[id] = true
	}
	for _, id := range adminUsers {
		s.adminUsers[id] = true
	}
	if len(adminChats) > 0 {
		s.notifyChat = adminChats[0]
	}
	return s
}

// IsAdmin reports whether a sender writing in chatID may use admin commands.
func (s *Service) IsAdmin(chatID, userID int64) bool {
	if s == nil {
		return false
	}
	return s.adminChats[chatID] || s.adminUsers[userID]
}

func (s *Service) IsAdminChat(chatID int64) bool {
	return s != nil && s.adminChats[chatID]
}

// NotifyChat returns the chat that receives admin notifications.
func (s *Service) NotifyChat() int64 {
	if s == nil {
		return 0
	}
	return s.notifyChat
}
