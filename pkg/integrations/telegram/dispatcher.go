package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/flowbaker/stickerzip/pkg/domain"
	"github.com/flowbaker/stickerzip/pkg/pipeline"
	"github.com/flowbaker/stickerzip/pkg/resolver"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type RequestHandler interface {
	Handle(ctx context.Context, req pipeline.Request) error
}

type Dispatcher struct {
	updates         UpdateSource
	handler         RequestHandler
	messenger       domain.Messenger
	updateTimeout   int
	shutdownTimeout time.Duration

	wg sync.WaitGroup
}

type DispatcherDependencies struct {
	Updates   UpdateSource
	Handler   RequestHandler
	Messenger domain.Messenger
	// UpdateTimeout is the long polling timeout in seconds.
	UpdateTimeout int
	// ShutdownTimeout is how long in-flight requests may keep running after
	// shutdown starts before their context is canceled.
	ShutdownTimeout time.Duration
}

func NewDispatcher(deps DispatcherDependencies) *Dispatcher {
	shutdownTimeout := deps.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &Dispatcher{
		updates:         deps.Updates,
		handler:         deps.Handler,
		messenger:       deps.Messenger,
		updateTimeout:   deps.UpdateTimeout,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run polls for updates until ctx is done, handling each message on its own
// goroutine. It returns once every in-flight handler has finished.
func (d *Dispatcher) Run(ctx context.Context) error {
	handlerCtx, cancelHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelHandlers()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = d.updateTimeout

	updates := d.updates.GetUpdatesChan(updateConfig)

	log.Info().Msg("Listening for Telegram updates")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case update, ok := <-updates:
			if !ok {
				break loop
			}
			d.dispatch(handlerCtx, update)
		}
	}

	d.updates.StopReceivingUpdates()

	if !d.wait(d.shutdownTimeout) {
		log.Warn().Dur("timeout", d.shutdownTimeout).Msg("In-flight requests still running, canceling them")
		cancelHandlers()
		d.wg.Wait()
	}

	log.Info().Msg("Telegram dispatcher stopped")

	return nil
}

func (d *Dispatcher) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, update tgbotapi.Update) {
	action, input := routeMessage(update.Message)
	if action == messageAction_Ignore {
		return
	}

	chatID := update.Message.Chat.ID

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Int("update_id", update.UpdateID).
					Int64("chat_id", chatID).
					Str("panic", fmt.Sprint(r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic while handling update")
			}
		}()

		switch action {
		case messageAction_Help:
			if err := d.messenger.SendText(ctx, chatID, HelpText()); err != nil {
				log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send help")
			}
		case messageAction_Pipeline:
			err := d.handler.Handle(ctx, pipeline.Request{
				RequestID: xid.New().String(),
				ChatID:    chatID,
				Input:     input,
			})
			if err != nil {
				log.Debug().Err(err).Int("update_id", update.UpdateID).Msg("Update handled with error")
			}
		}
	}()
}

type messageAction int

const (
	messageAction_Ignore messageAction = iota
	messageAction_Help
	messageAction_Pipeline
)

// routeMessage decides what a message asks for. Only private chats are
// served; messages that carry neither text nor a sticker are ignored.
func routeMessage(msg *tgbotapi.Message) (messageAction, resolver.Input) {
	if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return messageAction_Ignore, resolver.Input{}
	}

	if msg.IsCommand() {
		switch strings.ToLower(msg.Command()) {
		case CommandName_Download:
			return messageAction_Pipeline, resolver.CommandInput(strings.TrimSpace(msg.CommandArguments()))
		case CommandName_Help, CommandName_Start:
			return messageAction_Help, resolver.Input{}
		default:
			return messageAction_Help, resolver.Input{}
		}
	}

	if msg.Sticker != nil {
		return messageAction_Pipeline, resolver.AttachmentInput(msg.Sticker.SetName)
	}

	if msg.Text != "" {
		return messageAction_Pipeline, resolver.TextInput(msg.Text)
	}

	return messageAction_Ignore, resolver.Input{}
}
