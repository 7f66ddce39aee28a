package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"taskPlanner/internal/app"
	"taskPlanner/internal/config"
	"taskPlanner/internal/middleware"
	"time"
)

func main() {
	configPath := flag.String("config", "config.yml", "путь к config-файлу")
	dumpConfig := flag.Bool("dump-config", false, "вывести итоговый конфиг и выйти")
	issueToken := flag.String("issue-token", "", "выпустить JWT для пользователя и выйти")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "время жизни выпускаемого токена")
	flag.Parse()

	if err := run(*configPath, *dumpConfig, *issueToken, *tokenTTL); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, dumpConfig bool, issueToken string, tokenTTL time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("загрузка конфига: %w", err)
	}

	if dumpConfig {
		return cfg.Dump(os.Stdout)
	}

	if issueToken != "" {
		token, err := middleware.GenerateToken([]byte(cfg.Auth.Secret), issueToken, tokenTTL)
		if err != nil {
			return fmt.Errorf("выпуск токена: %w", err)
		}
		fmt.Println(token)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		a.Close()
		return fmt.Errorf("инициализация: %w", err)
	}
	return a.Run(ctx)
}
