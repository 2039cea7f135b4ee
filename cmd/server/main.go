package main

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/paisabook/paisabook/internal/accountdelivery"
	"github.com/paisabook/paisabook/internal/accountrepo"
	"github.com/paisabook/paisabook/internal/accountservice"
	"github.com/paisabook/paisabook/internal/entrydelivery"
	"github.com/paisabook/paisabook/internal/entryrepo"
	"github.com/paisabook/paisabook/internal/entryservice"
	"github.com/paisabook/paisabook/internal/limitservice"
	"github.com/paisabook/paisabook/internal/middleware"
	"github.com/paisabook/paisabook/internal/notifier"
	"github.com/paisabook/paisabook/internal/otpstore"
	"github.com/paisabook/paisabook/internal/requestdelivery"
	"github.com/paisabook/paisabook/internal/requestrepo"
	"github.com/paisabook/paisabook/internal/requestservice"
	"github.com/paisabook/paisabook/internal/topupdelivery"
	"github.com/paisabook/paisabook/internal/topupservice"
	"github.com/paisabook/paisabook/internal/transferdelivery"
	"github.com/paisabook/paisabook/internal/transferrepo"
	"github.com/paisabook/paisabook/internal/transferservice"
	"github.com/paisabook/paisabook/internal/userdelivery"
	"github.com/paisabook/paisabook/internal/userrepo"
	"github.com/paisabook/paisabook/internal/userservice"
	"github.com/paisabook/paisabook/pkg/configpkg"
	"github.com/paisabook/paisabook/pkg/dbpkg"
	"github.com/paisabook/paisabook/pkg/randompkg"
	"github.com/paisabook/paisabook/pkg/tokenpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	var sink notifier.Sink = notifier.LogSink{}

	if config.AMQPUrl != "" {
		amqpSink, err := notifier.NewAMQPSink(config.AMQPUrl, config.NotifyExchange)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to broker")
		}
		defer amqpSink.Close()

		sink = amqpSink
	}

	redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddress})
	defer redisClient.Close()

	server, err := createServer(conn, sink, redisClient, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	err = server.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}

func createServer(
	conn *sql.DB,
	sink notifier.Sink,
	redisClient *redis.Client,
	logger zerolog.Logger,
	config configpkg.Config,
) (*gin.Engine, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	entryRepo := entryrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn)
	requestRepo := requestrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	otpStore := otpstore.New(redisClient, config.OTPDuration)

	accountService := accountservice.New(accountRepo)
	userService := userservice.New(userRepo, accountService)
	transferService := transferservice.New(transferRepo, accountService, userService, otpStore, sink, randompkg.OTP)
	topupService := topupservice.New(transferRepo, accountService, sink)
	limitService := limitservice.New(accountService, entryRepo)
	entryService := entryservice.New(entryRepo, accountService)
	requestService := requestservice.New(requestRepo, transferRepo, accountService, userService, sink)

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	accountHandler := accountdelivery.NewHandler(accountService, limitService)
	transferHandler := transferdelivery.NewHandler(transferService)
	topupHandler := topupdelivery.NewHandler(topupService)
	entryHandler := entrydelivery.NewHandler(entryService)
	requestHandler := requestdelivery.NewHandler(requestService)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()

	server.Use(middleware.RequestLogger(logger))
	server.Use(gin.Recovery())

	server.POST("/users", userHandler.Create)
	server.POST("/users/login", userHandler.Login)

	authRoutes := server.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/wallet", accountHandler.Get)
	authRoutes.GET("/wallet/limits", accountHandler.GetLimits)

	authRoutes.POST("/transfers", transferHandler.Create)
	authRoutes.POST("/transfers/secure", transferHandler.CreateSecure)
	authRoutes.POST("/transfers/otp", transferHandler.RequestOTP)

	authRoutes.POST("/topups/confirm", topupHandler.Confirm)

	authRoutes.GET("/transactions", entryHandler.List)
	authRoutes.GET("/transactions/:reference", entryHandler.Get)

	authRoutes.POST("/requests", requestHandler.Create)
	authRoutes.GET("/requests", requestHandler.List)
	authRoutes.POST("/requests/:id/pay", requestHandler.Pay)
	authRoutes.POST("/requests/:id/decline", requestHandler.Decline)
	authRoutes.POST("/requests/:id/cancel", requestHandler.Cancel)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("phone", userdelivery.ValidPhone)
		if err != nil {
			return nil, errors.New("cannot register phone validator")
		}
	}

	return server, nil
}
