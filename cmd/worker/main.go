package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/database"
	"github.com/qs3c/bookstore_go_server/internal/pkg/email"
	"github.com/qs3c/bookstore_go_server/internal/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	mailQueue := queue.NewQueue(rdb, cfg.Queue.MailQueue)
	mailer := email.NewService(&cfg.Email)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	log.Println("Mail worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("Mail worker shutdown complete")
			return
		default:
			msg, err := mailQueue.Pop(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("Failed to pop mail message: %v", err)
				continue
			}
			if msg == nil {
				continue // 超时，继续等待
			}

			if err := dispatch(mailer, msg); err != nil {
				// 发送失败不重试，只记录，避免坏消息卡死队列
				log.Printf("Failed to send %s mail to %s: %v", msg.Kind, msg.To, err)
				continue
			}
			log.Printf("Sent %s mail to %s", msg.Kind, msg.To)
		}
	}
}

func dispatch(mailer *email.Service, msg *queue.MailMessage) error {
	switch msg.Kind {
	case queue.MailPasswordReset:
		return mailer.SendPasswordReset(msg.To, msg.Link)
	case queue.MailPaymentLink:
		return mailer.SendPaymentLink(msg.To, msg.Link)
	case queue.MailOrderReceipt:
		return mailer.SendOrderReceipt(msg.To, msg.OrderID, msg.TotalAmount, msg.ItemCount)
	default:
		log.Printf("Unknown mail kind %q, dropping", msg.Kind)
		return nil
	}
}
