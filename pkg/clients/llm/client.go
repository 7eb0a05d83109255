package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"shopbot/config"
	"shopbot/model"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

const (
	clientNameChatModel = "chat_model"

	apiKeyEnv = "OPENAI_API_KEY"

	headerContentType       = "Content-Type"
	headerContentTypeStream = "text/event-stream;charset=utf-8"
	headerCache             = "Cache-Control"
	headerCacheNo           = "no-cache"
	headerConnection        = "Connection"
	headerKeepAlive         = "keep-alive"
	headerTransfer          = "Transfer-Encoding"
	headerChunked           = "chunked"
)

var (
	streamMessageStart = []byte("data: ")
	streamMessageEnd   = []byte("\n\n")
)

// Config holds the chat-completion endpoint settings.
type Config struct {
	Addr        string
	Model       string
	Token       string
	Temperature float32
	MaxTokens   int
}

type Client struct {
	config *Config
}

var (
	instance *Client
	once     sync.Once
)

func GetInstance() *Client {
	once.Do(func() {
		conf := &Config{
			Addr:        config.GetInstance().GetString(config.ClientChatModelAddr),
			Model:       config.GetInstance().GetString(config.ClientChatModelModel),
			Token:       os.Getenv(apiKeyEnv),
			Temperature: cast.ToFloat32(config.GetInstance().GetFloat64(config.ClientChatModelTemperature)),
			MaxTokens:   config.GetInstance().GetInt(config.ClientChatModelMaxTokens),
		}

		instance = &Client{config: conf}
	})
	return instance
}

func (c *Client) newAPIClient() *openai.Client {
	apiConfig := openai.DefaultConfig(c.config.Token)
	if c.config.Addr != "" {
		apiConfig.BaseURL = c.config.Addr
	}
	return openai.NewClientWithConfig(apiConfig)
}

// StreamChatCompletions streams the completion to the bound gin writer as SSE.
func (c *Client) StreamChatCompletions(ctx context.Context, messages []openai.ChatCompletionMessage) error {
	ginCtx, ok := ctx.(*gin.Context)
	if !ok {
		return model.NewError(model.ErrorParams, nil)
	}

	stream, err := c.newAPIClient().CreateChatCompletionStream(ginCtx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stream:      true,
	})
	if err != nil {
		log.Errorf("%s stream creation error: %v", clientNameChatModel, err)
		return err
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			log.Warnf("%s stream close error: %v", clientNameChatModel, closeErr)
		}
	}()

	ginCtx.Writer.Header().Set(headerContentType, headerContentTypeStream)
	ginCtx.Writer.Header().Set(headerCache, headerCacheNo)
	ginCtx.Writer.Header().Set(headerConnection, headerKeepAlive)
	ginCtx.Writer.Header().Set(headerTransfer, headerChunked)
	ginCtx.Writer.Flush()

	ginCtx.Stream(func(w io.Writer) bool {
		var respMsg bytes.Buffer

		response, recvErr := stream.Recv()
		if recvErr == io.EOF {
			return false
		}
		if recvErr != nil {
			log.Errorf("%s stream.Recv error: %v", clientNameChatModel, recvErr)
			return false
		}

		if len(response.Choices) > 0 {
			respMsg.Write(streamMessageStart)
			temp, marshalErr := json.Marshal(response.Choices)
			if marshalErr != nil {
				log.Errorf("%s: %+v json.Marshal error: %v", clientNameChatModel, response.Choices, marshalErr)
				return false
			}
			respMsg.Write(temp)
			respMsg.Write(streamMessageEnd)

			if _, writeErr := w.Write(respMsg.Bytes()); writeErr != nil {
				log.Errorf("%s: %+v w.Write error: %v", clientNameChatModel, respMsg.String(), writeErr)
				return false
			}
			ginCtx.Writer.Flush()
		}
		return true
	})

	return nil
}

// ChatCompletion is the non-stream call, returning the full response.
func (c *Client) ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stream:      false,
	}

	if log.GetLevel() == log.DebugLevel {
		if requestJSON, err := json.MarshalIndent(request, "", "  "); err == nil {
			fmt.Fprintf(os.Stdout, "[DEBUG] %s chat completion request:\n%s\n", clientNameChatModel, string(requestJSON))
		}
	}

	response, err := c.newAPIClient().CreateChatCompletion(ctx, request)
	if err != nil {
		log.Errorf("%s chat completion error: %v", clientNameChatModel, err)
		return nil, err
	}

	if log.GetLevel() == log.DebugLevel {
		if responseJSON, err := json.MarshalIndent(response, "", "  "); err == nil {
			fmt.Fprintf(os.Stdout, "[DEBUG] %s chat completion response:\n%s\n", clientNameChatModel, string(responseJSON))
		}
	}

	return &response, nil
}

// Complete is the non-stream call, returning only the reply content.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	response, err := c.ChatCompletion(ctx, messages)
	if err != nil {
		return "", err
	}

	if response == nil {
		log.Errorf("%s chat completion response is nil", clientNameChatModel)
		return "", fmt.Errorf("chat completion response is nil")
	}
	if len(response.Choices) == 0 {
		log.Errorf("%s chat completion response has no choices", clientNameChatModel)
		return "", fmt.Errorf("chat completion response has no choices")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		log.Warnf("%s chat completion response content is empty", clientNameChatModel)
	}
	return content, nil
}
