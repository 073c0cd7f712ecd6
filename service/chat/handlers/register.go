package handlers

import (
	chatservice "github.com/pulsechat/gateway/module/chat/service"
	"github.com/pulsechat/gateway/service/chat"
)

// RegisterAll installs the live event handlers on the server's
// dispatch table.
func RegisterAll(s *chat.Server, msgSvc *chatservice.MessageService) {
	s.Disp().Register(NewPingHandler())
	s.Disp().Register(NewAuthHandler())
	s.Disp().Register(NewMessageHandler(msgSvc))
	s.Disp().Register(NewTypingHandler())
	s.Disp().Register(NewStatusHandler())
}
