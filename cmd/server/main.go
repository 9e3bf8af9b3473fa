package main

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"

	"github.com/tendant/oss-presign/internal/api"
	"github.com/tendant/oss-presign/pkg/osssign"
)

type Config struct {
	OSS          OSSConfig
	ApiKeySHA256 string `env:"API_KEY_SHA256" env-default:""`
}

// OSSConfig carries the default credentials and location merged into sign
// requests that omit them. All fields are optional; a request supplying
// everything itself needs no environment at all.
type OSSConfig struct {
	AccessKeyID     string `env:"OSS_ACCESS_KEY_ID" env-default:""`
	AccessKeySecret string `env:"OSS_ACCESS_KEY_SECRET" env-default:""`
	SecurityToken   string `env:"OSS_SECURITY_TOKEN" env-default:""`
	Region          string `env:"OSS_REGION" env-default:""`
	Bucket          string `env:"OSS_BUCKET" env-default:""`
	Endpoint        string `env:"OSS_ENDPOINT" env-default:""`
	PresignExpires  int64  `env:"OSS_PRESIGN_EXPIRES" env-default:"60"`
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	signer, err := osssign.New(osssign.WithDefaultExpires(config.OSS.PresignExpires))
	if err != nil {
		slog.Error("Failed to create signer", "err", err)
		os.Exit(1)
	}

	signHandler := api.NewSignHandler(signer, osssign.PresignRequest{
		AccessKeyID:     config.OSS.AccessKeyID,
		AccessKeySecret: config.OSS.AccessKeySecret,
		SecurityToken:   config.OSS.SecurityToken,
		Region:          config.OSS.Region,
		Bucket:          config.OSS.Bucket,
		Endpoint:        config.OSS.Endpoint,
	})

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if config.ApiKeySHA256 != "" {
				apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
					APIKeys: map[string]string{
						"key1": config.ApiKeySHA256,
					},
				})
				if err != nil {
					slog.Error("Failed to initialize API Key middleware", "err", err)
					os.Exit(1)
				}
				r.Use(apiKeyMiddleware)
			}
			r.Mount("/sign", signHandler.Routes())
		})
	})

	server.Run()
}
