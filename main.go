package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ephemeral-chat-service/internal/auth"
	"ephemeral-chat-service/internal/chat"
	"ephemeral-chat-service/internal/config"
	"ephemeral-chat-service/internal/db"
	"ephemeral-chat-service/internal/handlers"
	"ephemeral-chat-service/internal/media"
	"ephemeral-chat-service/internal/middleware"
	"ephemeral-chat-service/internal/observability"
	"ephemeral-chat-service/internal/presence"
	"ephemeral-chat-service/internal/rabbitmq"
	"ephemeral-chat-service/internal/repositories"
	"ephemeral-chat-service/internal/sweeper"
	"ephemeral-chat-service/internal/telemetry"
	"ephemeral-chat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.ephemeral-chat", "ephemeral-chat-service", cfg.Environment)

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	} else {
		log.Printf("ws event publishing disabled: %v", err)
	}

	tracker := presence.NewTracker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	blobs := media.NewClient(cfg.MediaBaseURL, cfg.MediaToken)

	groupRepo := repositories.NewGroupRepo(database)
	memberRepo := repositories.NewMembershipRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)

	hub := ws.NewHub(tracker, cfg.SendQueueSize)

	sweep := sweeper.New(groupRepo, messageRepo, blobs, hub, cfg.SweepInterval, cfg.StaleClaimAfter)
	chatService := chat.NewService(groupRepo, memberRepo, messageRepo, reactionRepo, hub, sweep)

	credentials := auth.NewJWTService(cfg.JWTSecret)

	groupHandler := handlers.NewGroupHandler(chatService, audit)
	memberHandler := handlers.NewMemberHandler(chatService, audit)
	messageHandler := handlers.NewMessageHandler(chatService, audit)
	reactionHandler := handlers.NewReactionHandler(chatService)
	presenceHandler := handlers.NewPresenceHandler(tracker)
	groupWS := ws.NewGroupWebSocketHandler(hub, chatService, credentials)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweep.Run(ctx)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(credentials)

	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.GET("/groups/public", authMiddleware, groupHandler.ListPublicGroups)
	router.POST("/groups/join", authMiddleware, groupHandler.JoinGroup)
	router.GET("/groups/:group_id", authMiddleware, groupHandler.GetGroup)
	router.DELETE("/groups/:group_id", authMiddleware, groupHandler.DeleteGroup)
	router.POST("/groups/:group_id/invite", authMiddleware, groupHandler.RegenerateInviteCode)

	router.GET("/groups/:group_id/members", authMiddleware, memberHandler.ListMembers)
	router.DELETE("/groups/:group_id/members/me", authMiddleware, memberHandler.Leave)
	router.POST("/groups/:group_id/members/:user_id/ban", authMiddleware, memberHandler.Ban)
	router.POST("/groups/:group_id/members/:user_id/promote", authMiddleware, memberHandler.Promote)
	router.POST("/groups/:group_id/members/:user_id/demote", authMiddleware, memberHandler.Demote)

	router.POST("/groups/:group_id/messages", authMiddleware, messageHandler.PostMessage)
	router.GET("/groups/:group_id/messages", authMiddleware, messageHandler.ListMessages)
	router.GET("/groups/:group_id/messages/search", authMiddleware, messageHandler.SearchMessages)
	router.PATCH("/groups/:group_id/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/groups/:group_id/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)

	router.POST("/groups/:group_id/messages/:message_id/reactions", authMiddleware, reactionHandler.AddReaction)
	router.DELETE("/groups/:group_id/messages/:message_id/reactions", authMiddleware, reactionHandler.RemoveReaction)
	router.GET("/groups/:group_id/messages/:message_id/reactions", authMiddleware, reactionHandler.ListReactions)

	router.GET("/presence/online", authMiddleware, presenceHandler.OnlineUsers)

	router.GET("/ws/groups/:group_id", groupWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
