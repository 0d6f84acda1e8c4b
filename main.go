package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"simonserver/auth"     //ゲストユーザーのJWT
	"simonserver/database" //PostgreSQLとRedisの初期化、永続化
	"simonserver/models"   //モデル定義と設定
	"simonserver/screens"  //HTTPリクエストの処理
	"simonserver/services" //ルームとゲームの操作
	"simonserver/simon"    //ゲームロジック
	"simonserver/utils"    //ロガー、設定、Cronジョブ(終了済みルームの定期クリーンナップ)

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const releaseVersion = "0.1.0"

func main() {
	// .env があれば環境変数として読み込む
	_ = godotenv.Load()
	cobra.CheckErr(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "simonserver",
		Short:         "Two-player Simon memory game server.",
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file (env overrides: SIMON_*)")

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				config.Server.Addr = addr
			}
			return runServer(cmd.Context(), config)
		},
	}
	serve.Flags().StringVarP(&addr, "addr", "a", ":8080", "address to listen on (env: SIMON_SERVER_ADDR)")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return runMigrate(config)
		},
	}

	root.AddCommand(serve, migrate)
	// フラグ名の _ は - として扱う
	normalize := func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	}
	root.PersistentFlags().SetNormalizeFunc(normalize)
	serve.Flags().SetNormalizeFunc(normalize)
	root.CompletionOptions.HiddenDefaultCmd = true
	return root
}

func runMigrate(config *models.Config) error {
	logger, err := utils.InitLogger(config.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.InitPostgreSQL(config.Database, logger)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	logger.Info("テーブルの作成・更新が完了しました")
	return nil
}

func runServer(ctx context.Context, config *models.Config) error {
	logger, err := utils.InitLogger(config.Log.Development) // ロガーの初期化
	if err != nil {
		return err
	}
	defer logger.Sync() // ロガーのクリーンアップ

	db, err := database.InitPostgreSQL(config.Database, logger)
	if err != nil {
		return fmt.Errorf("PostgreSQLの初期化に失敗しました: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	store := database.NewStore(db)

	// Redisが有効なら複数プロセスで共有するロック、無効ならプロセス内ロック
	var locker services.Locker = database.NewLocalLocker()
	if config.Redis.Enabled {
		rdb, err := database.InitRedis(config.Redis, logger)
		if err != nil {
			return fmt.Errorf("Redisの初期化に失敗しました: %w", err)
		}
		defer rdb.Close()
		locker = database.NewRedisLocker(rdb, logger)
	}

	// クーロンスケジューラのセットアップと呼び出し
	cleaner, err := utils.CronCleaner(store, config.Game.PurgeSchedule, config.Game.FinishedRetention, logger)
	if err != nil {
		return fmt.Errorf("invalid game.purge_schedule %q: %w", config.Game.PurgeSchedule, err)
	}
	defer cleaner.Stop()

	resolver := simon.NewResolver(simon.DefaultBaseColors(), nil)
	games := services.NewGameService(store, locker, simon.NewGenerator(nil), logger)
	handler := &screens.Handler{
		Users:     store,
		Rooms:     services.NewRoomService(store, games, resolver, logger),
		Games:     games,
		Resolver:  resolver,
		Tokens:    auth.NewTokenIssuer(config.Auth.JWTSecret, config.Auth.TokenTTL),
		PublicURL: config.Server.PublicURL,
		Logger:    logger,
	}

	if !config.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	//各HTTPリクエストのルーティング
	handler.Register(router)

	srv := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("サーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
