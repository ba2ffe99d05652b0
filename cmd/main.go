package main

import (
	"net/http"
	"os"
	"time"

	"estatemap/api/handler"
	apiMiddleware "estatemap/api/middleware"
	"estatemap/api/routes"
	"estatemap/config"
	"estatemap/internal/imaging"
	"estatemap/internal/repository"
	"estatemap/internal/service"
	"estatemap/internal/storage"
	"estatemap/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	db := config.ConnectionDb()
	validate := validator.New()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	accessSecret := []byte(os.Getenv("JWT_SECRET"))
	issuer := os.Getenv("JWT_ISSUER")
	if len(accessSecret) == 0 {
		logger.Fatal("JWT_SECRET is required")
	}

	accessTTL := config.EnvDuration("ACCESS_TOKEN_TTL", 60*time.Minute)
	refreshTTL := config.EnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour)

	accessManager := utils.JWTManager{
		Secret:         accessSecret,
		Issuer:         issuer,
		AccessTokenTTL: accessTTL,
	}
	accessIssuer := service.JWTAccessIssuer{Manager: &accessManager}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokenRepo := repository.NewCredentialTokenRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	imageRepo := repository.NewPropertyImageRepository(db)

	tokenService := service.NewTokenService(tokenRepo, service.RealClock{}, service.TokenConfig{
		VerificationCodeTTL: config.EnvDuration("VERIFICATION_CODE_TTL", 15*time.Minute),
		EmailChangeCodeTTL:  config.EnvDuration("EMAIL_CHANGE_CODE_TTL", 15*time.Minute),
		ResetTokenTTL:       config.EnvDuration("RESET_TOKEN_TTL", 24*time.Hour),
	})

	var emailSender service.EmailSender
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		emailSender = service.NewResendEmailSender(
			apiKey,
			config.Env("EMAIL_FROM", "EstateMap <no-reply@estatemap.dev>"),
			config.Env("APP_BASE_URL", "http://localhost:3000"),
		)
	} else {
		logger.Warn("RESEND_API_KEY not set, outbound email disabled")
	}

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		tokenService,
		emailSender,
		service.BcryptPasswordHasher{},
		accessIssuer,
		service.RealClock{},
		logger,
		service.AuthConfig{
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
		},
	)

	blobStore, err := storage.NewMinIOStore(
		config.Env("MINIO_ENDPOINT", "localhost:9000"),
		os.Getenv("MINIO_ACCESS_KEY"),
		os.Getenv("MINIO_SECRET_KEY"),
		config.Env("MINIO_BUCKET", "estatemap-media"),
		config.Env("MINIO_PUBLIC_URL", "http://localhost:9000"),
		config.EnvBool("MINIO_USE_SSL", false),
	)
	if err != nil {
		logger.WithError(err).Fatal("object storage unavailable")
	}

	propertyService := service.NewPropertyService(
		propertyRepo,
		imageRepo,
		blobStore,
		imaging.NewUploadValidator(),
		imaging.DefaultOptions(),
		logger,
	)

	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	authHandler.SecureCookies = os.Getenv("COOKIE_SECURE") != "false"
	propertyHandler := handler.NewPropertyHandler(propertyService, validate)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &accessManager}
	router := routes.NewRouter(app, authHandler, propertyHandler, authMiddleware)
	router.RegisterRoutes()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", addr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
