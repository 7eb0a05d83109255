package factory

import (
	"sync"
	"time"

	"shopbot/config"
	"shopbot/constant"
	"shopbot/pkg/clients/embedding"
	"shopbot/pkg/clients/llm"
	"shopbot/pkg/clients/redis"
	"shopbot/pkg/clients/woocommerce"
	"shopbot/pkg/extractor"
	"shopbot/pkg/promptcache"
	"shopbot/repository/factory"
	"shopbot/repository/xormimplement"
	"shopbot/service/chat"
	"shopbot/service/conversation"
	"shopbot/service/document"
	"shopbot/service/memory"
	"shopbot/service/resolver"

	redisv8 "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

var instance *Factory
var once sync.Once

// Factory wires the service layer once and hands out the shared instances.
type Factory struct {
	repositoryFactory factory.Factory

	conversationsOnce sync.Once
	conversations     *conversation.Manager

	memoryOnce    sync.Once
	memoryService *memory.Service

	documentOnce    sync.Once
	documentService *document.Service

	resolverOnce    sync.Once
	resolverService *resolver.Service

	chatOnce    sync.Once
	chatService *chat.Service
}

func init() {
	once.Do(func() {
		instance = &Factory{repositoryFactory: xormimplement.GetRepositoryFactoryInstance()}
	})
}

func GetServiceFactory() *Factory {
	return instance
}

func (f *Factory) ConversationManager() *conversation.Manager {
	f.conversationsOnce.Do(func() {
		f.conversations = conversation.NewManager()
	})
	return f.conversations
}

func (f *Factory) NewMemoryService() *memory.Service {
	f.memoryOnce.Do(func() {
		embedder, err := embedding.GetInstance()
		if err != nil {
			panic("failed to create embedding client: " + err.Error())
		}
		f.memoryService = memory.NewService(f.repositoryFactory, embedder)
	})
	return f.memoryService
}

func (f *Factory) NewDocumentService() *document.Service {
	f.documentOnce.Do(func() {
		embedder, err := embedding.GetInstance()
		if err != nil {
			panic("failed to create embedding client: " + err.Error())
		}

		cfg := config.GetInstance()
		service, err := document.NewService(
			f.repositoryFactory,
			embedder,
			cfg.GetIntOrDefault(config.ChunkMaxSize, constant.DefaultChunkMaxSize),
			cfg.GetIntOrDefault(config.ChunkOverlap, constant.DefaultChunkOverlap),
		)
		if err != nil {
			panic("failed to create document service: " + err.Error())
		}
		f.documentService = service
	})
	return f.documentService
}

func (f *Factory) NewResolverService() *resolver.Service {
	f.resolverOnce.Do(func() {
		f.resolverService = resolver.NewService(f.ConversationManager(), f.NewMemoryService(), f.NewDocumentService())
	})
	return f.resolverService
}

func (f *Factory) NewChatService() *chat.Service {
	f.chatOnce.Do(func() {
		cfg := config.GetInstance()

		f.chatService = chat.NewService(
			f.ConversationManager(),
			f.NewMemoryService(),
			f.NewResolverService(),
			extractor.NewRegexExtractor(),
			llm.GetInstance(),
			woocommerce.GetInstance(),
			newPromptLoader(),
			chat.Options{
				RecallLimit:   cfg.GetIntOrDefault(config.MemoryRecallLimit, constant.DefaultRecallLimit),
				MinSimilarity: cfg.GetFloat64OrDefault(config.MemoryMinSimilarity, constant.DefaultMinSimilarity),
			},
		)
	})
	return f.chatService
}

// newPromptLoader builds the template loader. Redis is optional: when it is
// not configured the loader serves straight from disk.
func newPromptLoader() *promptcache.Loader {
	cfg := config.GetInstance()
	dir := cfg.GetStringOrDefault(config.PromptsDir, "prompts")
	ttl := time.Duration(cfg.GetIntOrDefault(config.PromptsCacheTTL, 300)) * time.Second

	if cfg.GetString(config.RedisClientHost) == "" {
		log.Info("redis not configured, prompt templates served from disk only")
		return promptcache.NewLoader(dir, ttl, nil)
	}
	return promptcache.NewLoader(dir, ttl, getRedisCmdable())
}

// getRedisCmdable connects to redis. A connection failure degrades to no
// cache instead of taking the process down.
func getRedisCmdable() (cmd redisv8.Cmdable) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("redis unavailable, prompt templates served from disk only: %v", r)
			cmd = nil
		}
	}()
	return redis.GetInstance().Client
}
