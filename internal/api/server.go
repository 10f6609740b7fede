package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rifadigital/rifa-api/docs"
	v1 "github.com/rifadigital/rifa-api/internal/api/handler/v1"
	"github.com/rifadigital/rifa-api/internal/api/middleware"
	"github.com/rifadigital/rifa-api/internal/blobstore"
	"github.com/rifadigital/rifa-api/internal/config"
	"github.com/rifadigital/rifa-api/internal/repository"
	"github.com/rifadigital/rifa-api/internal/repository/dao"
	"github.com/rifadigital/rifa-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	raffleHandler, err := s.initRaffleHandler(db)
	if err != nil {
		return nil, fmt.Errorf("s.initRaffleHandler -> %w", err)
	}
	s.MountHandlers(authHandler, userHandler, raffleHandler)

	return s, nil
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initRaffleHandler(db *gorm.DB) (*v1.RaffleHandler, error) {
	blobs, err := blobstore.NewDiskStore(s.Config.Storage.Dir, s.Config.API.BaseURL+s.Config.Storage.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("blobstore.NewDiskStore -> %w", err)
	}

	raffleDAO := dao.NewRaffleDAO(db)
	repo := repository.NewRaffleRepository(raffleDAO)
	svc := service.NewRaffleService(repo, blobs, service.DrawPolicy{
		AllowEarly: s.Config.Draw.AllowEarly,
	})
	handler := v1.NewRaffleHandler(svc)

	return handler, nil
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, raffleHandler *v1.RaffleHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	public := s.Router.Group(basePath)
	{
		public.GET("/raffles", raffleHandler.HandleListRaffles)
		public.GET("/raffles/:raffleID", raffleHandler.HandleGetRaffle)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/:userID", userHandler.HandleGetUser)
		authed.GET("/me/raffles", raffleHandler.HandleGetMyRaffles)
		authed.GET("/me/tickets", raffleHandler.HandleGetMyTickets)

		authed.POST("/raffles", raffleHandler.HandleCreateRaffle)
		authed.POST("/raffles/:raffleID/tickets/purchase", raffleHandler.HandlePurchaseTickets)
		authed.POST("/raffles/:raffleID/draw", raffleHandler.HandleDraw)
		authed.POST("/raffles/:raffleID/cancel", raffleHandler.HandleCancelRaffle)
		authed.POST("/raffles/:raffleID/image", raffleHandler.HandleUploadRaffleImage)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Uploaded artwork is served straight from the blob store directory.
	s.Router.Static(s.Config.Storage.BaseURL, s.Config.Storage.Dir)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Rifa API"
	docs.SwaggerInfo.Description = "Numbered-ticket raffle API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	zap.L().Info("routes mounted", zap.String("base_path", basePath))
}
