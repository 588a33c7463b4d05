package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	// Infraestrutura e utilitários
	"gousers/config"
	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/database"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/password"
	"gousers/internal/pkg/token"
	"gousers/migrations"

	// Camadas do Usuário para Injeção de Dependências
	"gousers/internal/console"
	"gousers/internal/domain"
	"gousers/internal/repository/userrepo"
	"gousers/internal/service/sessionservice"
	"gousers/internal/service/userservice"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger (stderr, para não misturar com o menu no stdout)
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuração inválida: %v", err)
	}
	appLog := logger.NewLoggerWithOutput(cfg.LogLevel, cfg.Environment, os.Stderr)
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// 2. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	if cfg.AutoMigrate {
		goose.SetLogger(goose.NopLogger())
		if err := database.Migrate(db, migrations.FS, ".", "up"); err != nil {
			_ = db.Close()
			appLog.Fatal("Falha ao aplicar migrações.", err)
		}
		appLog.Info("Migrações aplicadas.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS: Repository -> Service -> Console
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	userSvc := userservice.NewService(userRepo, hasher, appLog)
	defer func() {
		// Close do serviço fecha o pool do DB (idempotente).
		if err := userSvc.Close(); err != nil {
			appLog.Error("Falha ao encerrar o serviço de usuários.", err)
		}
	}()
	appLog.Debug("Serviço de Usuário inicializado.", nil)

	// 4. Sessões (Redis + JWT), opcionais
	var sessions domain.SessionService
	switch {
	case cfg.SessionsEnabled && !cfg.SessionsUsable():
		appLog.Warn("JWT_SECRET_KEY não definida; sessões desativadas.", nil)
	case cfg.SessionsUsable():
		cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			appLog.Warn("Redis indisponível; sessões desativadas.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		} else {
			defer cacheClient.Close()
			tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
			sessions = sessionservice.NewService(cacheClient, tokenSvc, cfg.LoginMaxAttempts, cfg.LoginLockPeriod, appLog)
			appLog.Info("Conexão Redis estabelecida; sessões ativas.", nil)
		}
	}

	// 5. Execução do menu com encerramento por sinal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	menu := console.NewMenu(userSvc, sessions, os.Stdin, os.Stdout, appLog)
	done := make(chan error, 1)
	go func() {
		done <- menu.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			appLog.Error("Falha na leitura da entrada.", err)
		}
	case <-ctx.Done():
		appLog.Info("Sinal de encerramento recebido. Finalizando...", nil)
	}
}
