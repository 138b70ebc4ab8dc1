// Package ticket содержит бизнес-логику тикетов поддержки.
package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/pcinfobro/numvault/internal/lib/rabbitmq"
	"github.com/pcinfobro/numvault/internal/models"
)

// Repository определяет методы хранилища для работы с тикетами.
type Repository interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) (int64, error)
	GetTicket(ctx context.Context, ticketID int64, userUID string) (*models.Ticket, error)
	ListTickets(ctx context.Context, userUID string) ([]*models.Ticket, error)
	AppendTicketMessage(ctx context.Context, ticketID int64, userUID string, message models.TicketMessage) error
	CloseTicket(ctx context.Context, ticketID int64, userUID string) error
}

// Service реализует бизнес-логику тикетов.
type Service struct {
	repo       Repository
	mailCh     *amqp.Channel
	adminEmail string
	log        *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, mailCh *amqp.Channel, adminEmail string, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		mailCh:     mailCh,
		adminEmail: adminEmail,
		log:        log,
	}
}

// Create создаёт тикет с первым сообщением пользователя
// и уведомляет поддержку по почте.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyCreateTicket) (*models.Ticket, error) {
	ticket := models.Ticket{
		UserUID:  userUID,
		Title:    req.Title,
		Category: req.Category,
		Priority: req.Priority,
		Status:   models.TicketStatusOpen,
		Messages: []models.TicketMessage{{
			Sender:    "user",
			Content:   req.Description,
			CreatedAt: time.Now(),
		}},
	}
	newID, err := s.repo.CreateTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	ticket.ID = newID

	if s.mailCh != nil && s.adminEmail != "" {
		msg := models.MailMessage{
			Email:   s.adminEmail,
			Subject: fmt.Sprintf("Новый тикет #%d: %s", newID, req.Title),
			Body:    fmt.Sprintf("Категория: %s\nПриоритет: %s\n\n%s", req.Category, req.Priority, req.Description),
		}
		if err := rabbitmq.PublishMessage(s.mailCh, rabbitmq.MailExchange, rabbitmq.RouteTicketNotify, msg); err != nil {
			s.log.Error("failed to publish ticket notification", slog.Any("err", err))
		}
	}

	s.log.Info("created ticket", slog.Int64("id", newID))
	return &ticket, nil
}

// List возвращает тикеты пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Ticket, error) {
	return s.repo.ListTickets(ctx, userUID)
}

// Reply добавляет ответ пользователя. Закрытый тикет снова открывается.
func (s *Service) Reply(ctx context.Context, userUID string, ticketID int64, content string) (*models.Ticket, error) {
	message := models.TicketMessage{
		Sender:    "user",
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AppendTicketMessage(ctx, ticketID, userUID, message); err != nil {
		return nil, err
	}
	return s.repo.GetTicket(ctx, ticketID, userUID)
}

// Close закрывает тикет пользователя.
func (s *Service) Close(ctx context.Context, userUID string, ticketID int64) error {
	return s.repo.CloseTicket(ctx, ticketID, userUID)
}
