package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/panuwatch/authsession/internal/auth"
	"github.com/panuwatch/authsession/internal/config"
	"github.com/panuwatch/authsession/internal/profile"
	"github.com/panuwatch/authsession/internal/provider/googleauth"
	"github.com/panuwatch/authsession/internal/provider/local"
	"github.com/panuwatch/authsession/internal/repository"
	"github.com/panuwatch/authsession/internal/session"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.New(&logger)

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bootCancel()

	if err := client.Ping(bootCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	repo := repository.NewProfileMongoRepository(bootCtx, &logger, client.Database(cfg.MongoDatabase))
	provisioner := profile.NewProvisioner(repo, &logger)

	minter := auth.NewTokenMinter(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	var verifier local.GoogleVerifier
	if cfg.GoogleClientID != "" {
		verifier = googleauth.New(cfg.GoogleClientID)
	}

	idp := local.NewProvider(minter, verifier, &logger)
	defer idp.Close()

	sess := session.New(idp, provisioner, &logger)
	sess.Initialize()

	if cfg.DevUserEmail != "" {
		if _, err := idp.SignUp(bootCtx, cfg.DevUserEmail, cfg.DevUserPassword); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed dev user")
		}
	}

	if err := sess.WaitForAuth(bootCtx, cfg.AuthReadyTimeout); err != nil {
		logger.Fatal().Err(err).Msg("auth never became ready")
	}

	logger.Info().
		Bool("authenticated", sess.IsAuthenticated()).
		Str("email", sess.Email()).
		Str("role", string(sess.CurrentRole())).
		Msg("auth ready")

	sess.OnChange(func() {
		logger.Debug().
			Bool("authenticated", sess.IsAuthenticated()).
			Bool("busy", sess.Busy()).
			Msg("session state changed")
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	sess.Teardown()
}
