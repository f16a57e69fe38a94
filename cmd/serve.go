package cmd

import (
	"context"
	"database/sql"
	"net"

	"github.com/vibast-solutions/ms-go-segfault/app/controller"
	"github.com/vibast-solutions/ms-go-segfault/app/credential"
	"github.com/vibast-solutions/ms-go-segfault/app/entity"
	segfaultgrpc "github.com/vibast-solutions/ms-go-segfault/app/grpc"
	"github.com/vibast-solutions/ms-go-segfault/app/middleware"
	"github.com/vibast-solutions/ms-go-segfault/app/notify"
	"github.com/vibast-solutions/ms-go-segfault/app/policy"
	"github.com/vibast-solutions/ms-go-segfault/app/repository"
	"github.com/vibast-solutions/ms-go-segfault/app/service"
	"github.com/vibast-solutions/ms-go-segfault/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start both HTTP (Echo) and gRPC servers for the core service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// services is the wired service graph shared by both transports.
type services struct {
	db       *sql.DB
	sessions service.SessionIssuer
	accounts service.AccountService
	guard    service.OwnershipGuard
	ledger   service.VoteLedger
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := openDB(cfg.MySQL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	svc, err := newServices(cfg, db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build services")
	}

	go startGRPCServer(cfg, svc)

	startHTTPServer(cfg, svc)
}

func openDB(cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := repository.OpenMySQL(context.Background(), cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	return db, nil
}

func newServices(cfg *config.Config, db *sql.DB) (*services, error) {
	store, err := credential.NewStore(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	dispatcher := notify.NewDispatcher(notify.NewLogSender(), cfg.Notify.Timeout)
	tokens := service.NewTokenService(db)

	return &services{
		db:       db,
		sessions: service.NewSessionIssuer(userRepo, store, cfg.JWT),
		accounts: service.NewAccountService(
			userRepo,
			tokens,
			store,
			policy.FromConfig(cfg.Password.Policy),
			dispatcher,
			cfg.Frontend.URL,
		),
		guard:  service.NewOwnershipGuard(repository.NewResourceRepository(db)),
		ledger: service.NewVoteLedger(db, repository.NewVoteRepository(db)),
	}, nil
}

func startHTTPServer(cfg *config.Config, svc *services) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     allowedOrigins(cfg),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	if cfg.HTTP.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
			Timeout: cfg.HTTP.RequestTimeout,
		}))
	}

	registerRoutes(e, svc)

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		return cfg.HTTP.AllowedOrigins
	}
	return []string{cfg.Frontend.URL}
}

func registerRoutes(e *echo.Echo, svc *services) {
	authController := controller.NewAuthController(svc.sessions, svc.accounts)
	authMiddleware := middleware.NewAuthMiddleware(svc.sessions)
	ownershipMiddleware := middleware.NewOwnershipMiddleware(svc.guard)

	auth := e.Group("/auth")
	auth.POST("/login", authController.Login)
	auth.POST("/sign-up", authController.SignUp)
	auth.POST("/verify-email", authController.VerifyEmail)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)
	auth.GET("/", authController.CurrentUser, authMiddleware.RequireAuth)

	for prefix, kind := range map[string]entity.TargetKind{
		"/posts":    entity.TargetPost,
		"/comments": entity.TargetComment,
	} {
		votes := controller.NewVoteController(kind, svc.ledger)

		group := e.Group(prefix)
		group.GET("/:id/votes", votes.GetScore)
		group.GET("/:id/vote", votes.GetVote, authMiddleware.RequireAuth)
		group.POST("/:id/vote", votes.SetVote, authMiddleware.RequireAuth)
		group.GET("/:id/ownership", votes.Ownership, authMiddleware.RequireAuth, ownershipMiddleware.RequireOwner(kind))
	}

	e.GET("/health", controller.NewHealthController(svc.db).Health)
}

func startGRPCServer(cfg *config.Config, svc *services) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(segfaultgrpc.BearerUnaryInterceptor(svc.sessions)),
		grpc.StreamInterceptor(segfaultgrpc.BearerStreamInterceptor(svc.sessions)),
	)
	defer grpcServer.GracefulStop()
	segfaultgrpc.RegisterCoreServiceServer(grpcServer, segfaultgrpc.NewCoreServer(svc.guard, svc.ledger))

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
	if err := grpcServer.Serve(lis); err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}
}
