// init_data 测试数据初始化工具

package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"log"

	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := db.InitPostgres(); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	// 初始化数据库表
	if err := db.InitAllTables(); err != nil {
		log.Fatalf("初始化数据库表失败: %v", err)
	}
	log.Println("✓ 数据库表初始化完成")

	// 初始化测试账号
	if err := initTestAccounts(); err != nil {
		log.Fatalf("初始化测试账号失败: %v", err)
	}
	log.Println("✓ 测试账号初始化完成")

	log.Println("🎉 所有数据初始化完成！")
}

// initTestAccounts 初始化测试账号
func initTestAccounts() error {
	log.Println("正在初始化测试账号...")

	// 检查是否已有账号数据
	var count int
	err := db.DB.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Printf("账号表已有 %d 条数据，跳过初始化", count)
		return nil
	}

	// 插入测试账号
	accounts := []struct {
		username string
		password string
		email    string
	}{
		{"host_demo", "host123", "host@triviastorm.dev"},
		{"player_one", "player123", "one@triviastorm.dev"},
		{"player_two", "player123", "two@triviastorm.dev"},
	}

	for _, account := range accounts {
		hash := sha256.Sum256([]byte(account.password))
		hashedPassword := fmt.Sprintf("%x", hash)

		var accountID int64
		err := db.DB.QueryRow(
			"INSERT INTO accounts (username, password, email, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id",
			account.username, hashedPassword, account.email,
		).Scan(&accountID)
		if err != nil {
			return fmt.Errorf("插入账号 %s 失败: %w", account.username, err)
		}

		// 为每个账号建立空的统计行
		_, err = db.DB.Exec(
			"INSERT INTO player_stats (account_id, games_played, total_wins, total_score, best_score, total_correct_answers, longest_streak, updated_at) VALUES ($1, 0, 0, 0, 0, 0, 0, NOW())",
			accountID,
		)
		if err != nil {
			return fmt.Errorf("插入账号 %s 的统计行失败: %w", account.username, err)
		}

		log.Printf("创建测试账号: %s (ID: %d)", account.username, accountID)
	}

	return nil
}
