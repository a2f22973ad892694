package main

import (
	"context"

	"github.com/reelhub/reelhub/config"
	"github.com/reelhub/reelhub/encoder"
	"github.com/reelhub/reelhub/linkmeta"
	"github.com/reelhub/reelhub/models"
	"github.com/reelhub/reelhub/routes"
	"github.com/reelhub/reelhub/storage"
	"github.com/reelhub/reelhub/transcode"
	"github.com/reelhub/reelhub/utils"
	"github.com/reelhub/reelhub/wallet"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Wallet{},
		&models.CoinTransaction{},
		&models.AuditLog{},
	)

	store, err := storage.New(cfg)
	if err != nil {
		utils.Sugar.Fatalf("storage init failed: %v", err)
	}

	resolver := linkmeta.NewResolver(cfg)
	walletSvc := wallet.NewService(db)

	worker := transcode.NewWorker(
		transcode.NewGormStore(db),
		store,
		encoder.NewFFmpeg(cfg.FFmpegPath),
		cfg,
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	r := routes.SetupRouter(db, resolver, walletSvc, store)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
