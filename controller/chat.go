package controller

import (
	"net/http"

	"shopbot/model"
	"shopbot/pkg/clients/telegram"
	"shopbot/service/factory"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Chat runs one conversational turn.
func Chat(ctx *gin.Context) {
	var req model.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := factory.GetServiceFactory().NewChatService().Chat(ctx, &req)
	if err != nil {
		log.Errorf("Chat error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// ChatStream runs one conversational turn and streams the reply as SSE.
func ChatStream(ctx *gin.Context) {
	var req model.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := factory.GetServiceFactory().NewChatService().ChatStream(ctx, &req); err != nil {
		log.Errorf("ChatStream error: %v", err)
		respondError(ctx, err)
	}
}

// TelegramWebhook receives bot updates, runs the chat turn keyed by the
// Telegram chat id and replies through the bot API. Telegram retries on
// non-200, so everything after validation answers 200.
func TelegramWebhook(ctx *gin.Context) {
	client := telegram.GetInstance()
	if !client.VerifyWebhookSecret(ctx.GetHeader(telegram.WebhookSecretHeader)) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "bad webhook secret"})
		return
	}

	var update model.TelegramUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	req := &model.ChatRequest{
		ConversationID: update.Message.Chat.ID,
		Message:        update.Message.Text,
		Sequence:       update.UpdateID,
	}

	res, chatErr := factory.GetServiceFactory().NewChatService().Chat(ctx, req)
	if chatErr != nil {
		log.Errorf("TelegramWebhook chat error: %v", chatErr)
		ctx.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	if err := client.SendMessage(ctx, update.Message.Chat.ID, res.Reply); err != nil {
		log.Errorf("TelegramWebhook send error: %v", err)
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
