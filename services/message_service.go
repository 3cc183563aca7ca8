//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"

	"github.com/google/uuid"
)

// IMessageService is the write path for chat messages: persist first, then
// hand the event to the relay. Broadcast itself only ever happens on the
// subscriber side, so the fan-out code path is the same whether the message
// came from a socket or from a plain HTTP request.
type IMessageService interface {
	Post(ctx context.Context, roomID domain.RoomID, sender domain.Principal, content string) error
}

type MessageService struct {
	messageRepository repositories.IMessageRepository
	publisher         contract.IPublisher
}

func NewMessageService(messageRepository repositories.IMessageRepository,
	publisher contract.IPublisher) *MessageService {
	return &MessageService{messageRepository: messageRepository, publisher: publisher}
}

// Post stores the message and publishes MessageCreated.
// A relay failure after a successful store is a partial-failure state: the
// message is persisted but nobody is notified. The error is returned so the
// caller can detect exactly that.
func (s *MessageService) Post(ctx context.Context, roomID domain.RoomID,
	sender domain.Principal, content string) error {
	message := domain.Message{
		ID:        uuid.New(),
		Room:      roomID,
		SenderID:  sender.ID,
		Sender:    sender.Name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepository.StoreMessage(repositories.DiskMessage{
		ID:      message.ID,
		Room:    int(message.Room),
		Author:  message.Sender,
		Content: message.Content,
		At:      message.CreatedAt,
	}); err != nil {
		return err
	}

	return s.publisher.Publish(ctx, event.MessageCreated{
		ID:      message.ID,
		Room:    int(message.Room),
		Sender:  message.Sender,
		Content: message.Content,
		At:      message.CreatedAt,
	})
}
