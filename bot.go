package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nexuslm/agent"
	"nexuslm/config"
)

// telegramBot relays chat messages to the agent. Each chat is a session and
// carries the customer it speaks for.
type telegramBot struct {
	api    *tgbotapi.BotAPI
	agent  *agent.Agent
	cfg    *config.Config
	logger zerolog.Logger

	mu        sync.Mutex
	customers map[int64]string
}

func newTelegramBot(cfg *config.Config, chatAgent *agent.Agent) (*telegramBot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("connecting to Telegram: %w", err)
	}
	b := &telegramBot{
		api:       api,
		agent:     chatAgent,
		cfg:       cfg,
		logger:    log.With().Str("component", "telegram").Logger(),
		customers: make(map[int64]string),
	}
	b.logger.Info().Str("account", api.Self.UserName).Msg("authorized on Telegram")
	return b, nil
}

func (b *telegramBot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info().Msg("bot stopped")
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *telegramBot) customerFor(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.customers[chatID]; ok {
		return id
	}
	return b.cfg.DefaultCustomerID
}

func (b *telegramBot) setCustomer(chatID int64, customerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.customers[chatID] = customerID
}

func (b *telegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	session := "telegram-" + strconv.FormatInt(chatID, 10)
	b.logger.Debug().Str("user", message.From.UserName).Int64("chat_id", chatID).Msg("message received")

	var reply string
	switch message.Command() {
	case "start":
		reply = "Hello! I'm NexusLM, your Compute Engine support assistant.\n\n" +
			"I can:\n• Show your instances and disks with their monthly cost\n• Recommend machine types for a workload\n" +
			"• Send security best practices\n• Update your CRM record\n• Invite you to a video session with an engineer\n\n" +
			"Use /customer <id> to choose which customer you are."

	case "help":
		reply = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/help - Show this help message\n" +
			"/customer <id> - Set the customer for this chat\n" +
			"/reset - Forget the conversation\n\n" +
			"Or just ask me things like:\n" +
			"• \"What's in my cart?\"\n" +
			"• \"Which machine fits a 4 vCPU, 16GB data processing job?\""

	case "customer":
		id := strings.TrimSpace(message.CommandArguments())
		if id == "" {
			reply = "Current customer: " + b.customerFor(chatID) + "\nUse /customer <id> to change it."
			break
		}
		b.setCustomer(chatID, id)
		b.agent.Reset(session)
		reply = "Now helping customer " + id + "."

	case "reset":
		b.agent.Reset(session)
		reply = "Conversation cleared."

	case "":
		response, err := b.agent.Chat(ctx, session, b.customerFor(chatID), message.Text)
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("agent error")
			reply = "Sorry, I couldn't process that. Please try again."
		} else {
			reply = response
		}

	default:
		reply = "Unknown command. Try /help"
	}

	msg := tgbotapi.NewMessage(chatID, reply)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Msg("sending message")
	}
}
