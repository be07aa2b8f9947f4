package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/database"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	dryRun      = flag.Bool("dry-run", true, "Dry run mode, don't actually delete rows")
	subExpire   = flag.Int("sub-expire", 60, "Days to keep non-renewing subscription rows past their period end")
	cleanTokens = flag.Bool("clean-tokens", true, "Clear expired password reset tokens")
	cleanSubs   = flag.Bool("clean-subs", true, "Purge stale non-renewing subscription rows")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 1. 清理过期的密码重置令牌
	if *cleanTokens {
		userRepo := repository.NewUserRepository(db)
		if *dryRun {
			var count int64
			db.Model(&model.User{}).
				Where("reset_token IS NOT NULL AND reset_expires_at < ?", time.Now()).
				Count(&count)
			log.Printf("Would clear %d expired reset tokens", count)
		} else {
			cleared, err := userRepo.ClearExpiredResetTokens(time.Now())
			if err != nil {
				log.Printf("Failed to clear reset tokens: %v", err)
			} else {
				log.Printf("Cleared %d expired reset tokens", cleared)
			}
		}
	}

	// 2. 清理早已停更却仍残留的非续订订阅行。正常情况下网关的
	// subscription.deleted 回调会删掉这些行，这里兜底处理回调丢失的情况。
	if *cleanSubs {
		cutoff := time.Now().Add(-time.Duration(*subExpire) * 24 * time.Hour)
		query := db.Where("auto_renew = ? AND updated_at < ?", false, cutoff)

		if *dryRun {
			var count int64
			query.Model(&model.Subscription{}).Count(&count)
			log.Printf("Would purge %d stale subscription rows (untouched since %s)",
				count, cutoff.Format("2006-01-02"))
		} else {
			result := query.Delete(&model.Subscription{})
			if result.Error != nil {
				log.Printf("Failed to purge subscriptions: %v", result.Error)
			} else {
				log.Printf("Purged %d stale subscription rows", result.RowsAffected)
			}
		}
	}

	if *dryRun {
		log.Println("DRY RUN MODE - no rows were actually modified")
		log.Println("Run with -dry-run=false to apply changes")
	} else {
		log.Println("Cleanup completed")
	}
}
