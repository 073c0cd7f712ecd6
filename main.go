package main

import (
	"context"
	"hash/fnv"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/pulsechat/gateway/global"
	"github.com/pulsechat/gateway/logger"
	mid "github.com/pulsechat/gateway/middleware"
	chatapi "github.com/pulsechat/gateway/module/chat"
	"github.com/pulsechat/gateway/module/chat/model"
	chatservice "github.com/pulsechat/gateway/module/chat/service"
	"github.com/pulsechat/gateway/module/user"
	"github.com/pulsechat/gateway/service/chat"
	"github.com/pulsechat/gateway/service/chat/handlers"
	"github.com/pulsechat/gateway/service/mgo"
	"github.com/pulsechat/gateway/service/storage"
	"github.com/pulsechat/gateway/service/storage/redis"
	"github.com/pulsechat/gateway/tools/ids"
)

func main() {
	cfg := global.Load()
	ids.SetNodeID(nodeSeed(cfg.GatewayID))

	if err := redis.Init(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		log.Fatalf("redis init failed: %v", err)
	}

	ctx := context.Background()
	if err := mgo.Init(ctx, &mgo.Config{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		MaxPoolSize: 20,
	}); err != nil {
		log.Fatalf("mongo init failed: %v", err)
	}
	defer func() {
		_ = mgo.Close(context.Background())
		_ = redis.Close()
	}()

	if err := model.EnsureIndexes(ctx); err != nil {
		log.Fatalf("index bootstrap failed: %v", err)
	}

	store := model.NewStore()
	presence := storage.NewPresenceStore()

	s := chat.NewServer(cfg.GatewayID, store, presence, cfg.SendQueueSize)
	msgSvc := chatservice.NewMessageService(store, s.Broadcaster())
	handlers.RegisterAll(s, msgSvc)

	api := chatapi.NewAPI(msgSvc, store)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/chat", s.HandleWS)
	mid.POST(r, "/api/register", user.HandlerRegister, mid.RouteOpt{})
	mid.POST(r, "/api/login", user.HandlerLogin, mid.RouteOpt{})
	mid.GET(r, "/api/users/:id/presence", user.HandlerGetPresence, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/conversations", api.HandlerCreateConversation, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/messages", api.HandlerCreateMessage, mid.RouteOpt{IsAuth: true})
	mid.PUT(r, "/api/messages/:id", api.HandlerEditMessage, mid.RouteOpt{IsAuth: true})
	mid.DELETE(r, "/api/messages/:id", api.HandlerDeleteMessage, mid.RouteOpt{IsAuth: true})

	logger.Infof("[HTTP] gateway=%s listening on %s", cfg.GatewayID, cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Errorf("[HTTP] server stopped: %v", err)
	}
}

func nodeSeed(gatewayID string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(gatewayID))
	return int64(h.Sum32() % 1024)
}
