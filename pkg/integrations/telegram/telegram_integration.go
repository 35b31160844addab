package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowbaker/stickerzip/pkg/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramClient talks to the Bot API. It is both the source of sticker sets
// and the messenger that replies to chats.
type TelegramClient struct {
	bot          *tgbotapi.BotAPI
	httpClient   tgbotapi.HTTPClient
	fileEndpoint string
}

type TelegramClientDependencies struct {
	Token        string
	APIEndpoint  string
	FileEndpoint string
	// HTTPClient is shared by Bot API calls and file downloads.
	HTTPClient tgbotapi.HTTPClient
	Debug      bool
}

var (
	_ domain.CollectionSource = (*TelegramClient)(nil)
	_ domain.Messenger        = (*TelegramClient)(nil)
)

func NewTelegramClient(deps TelegramClientDependencies) (*TelegramClient, error) {
	if deps.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	apiEndpoint := deps.APIEndpoint
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	fileEndpoint := deps.FileEndpoint
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if err := tgbotapi.SetLogger(newBotLogger()); err != nil {
		return nil, fmt.Errorf("failed to set Telegram logger: %w", err)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(deps.Token, apiEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", redactToken(err, deps.Token))
	}
	bot.Debug = deps.Debug

	return &TelegramClient{
		bot:          bot,
		httpClient:   httpClient,
		fileEndpoint: fileEndpoint,
	}, nil
}

func (c *TelegramClient) Username() string {
	return c.bot.Self.UserName
}

func (c *TelegramClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.bot.GetUpdatesChan(config)
}

func (c *TelegramClient) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *TelegramClient) GetCollection(ctx context.Context, ref domain.CollectionReference) (domain.Collection, error) {
	set, err := c.bot.GetStickerSet(tgbotapi.GetStickerSetConfig{Name: ref.String()})
	if err != nil {
		return domain.Collection{}, fmt.Errorf("failed to get sticker set: %w", c.redact(err))
	}

	items := make([]domain.ItemDescriptor, len(set.Stickers))
	for i, sticker := range set.Stickers {
		items[i] = domain.ItemDescriptor{
			FileID:       sticker.FileID,
			FileUniqueID: sticker.FileUniqueID,
			Emoji:        sticker.Emoji,
		}
	}

	return domain.Collection{
		Name:  set.Name,
		Title: set.Title,
		Items: items,
	}, nil
}

func (c *TelegramClient) ResolveLocator(ctx context.Context, item domain.ItemDescriptor) (domain.DownloadLocator, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: item.FileID})
	if err != nil {
		return domain.DownloadLocator{}, fmt.Errorf("failed to get file: %w", c.redact(err))
	}

	if file.FilePath == "" {
		return domain.DownloadLocator{}, fmt.Errorf("file %s has no download path", item.FileID)
	}

	return domain.DownloadLocator{
		FileID:       file.FileID,
		RelativePath: file.FilePath,
		URL:          fmt.Sprintf(c.fileEndpoint, c.bot.Token, file.FilePath),
		Size:         int64(file.FileSize),
	}, nil
}

func (c *TelegramClient) Download(ctx context.Context, locator domain.DownloadLocator, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create download request: %w", c.redact(err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download %s: unexpected status %s", locator.RelativePath, resp.Status)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		return written, fmt.Errorf("failed to stream %s: %w", locator.RelativePath, c.redact(err))
	}

	return written, nil
}

func (c *TelegramClient) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", c.redact(err))
	}

	return nil
}

func (c *TelegramClient) SendDocument(ctx context.Context, chatID int64, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	docConfig := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{
		Name:   filepath.Base(path),
		Reader: file,
	})

	if _, err := c.bot.Send(docConfig); err != nil {
		return fmt.Errorf("failed to send document: %w", c.redact(err))
	}

	return nil
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (c *TelegramClient) RegisterCommands(ctx context.Context) error {
	commands := make([]tgbotapi.BotCommand, len(Commands))
	for i, command := range Commands {
		commands[i] = tgbotapi.BotCommand{
			Command:     command.Name,
			Description: command.Description,
		}
	}

	if _, err := c.bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("failed to register commands: %w", c.redact(err))
	}

	return nil
}

func (c *TelegramClient) redact(err error) error {
	return redactToken(err, c.bot.Token)
}

// redactToken strips the bot token from URLs carried by transport errors.
func redactToken(err error, token string) error {
	if err == nil || token == "" {
		return err
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, token, "<token>")
		return err
	}

	if strings.Contains(err.Error(), token) {
		return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
	}

	return err
}
