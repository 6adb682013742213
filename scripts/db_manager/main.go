// db_manager 数据库管理工具

package main

import (
	"flag"
	"log"

	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: reset, init, help")
	flag.Parse()

	// 显示帮助信息
	if *action == "help" {
		showHelp()
		return
	}

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := db.InitPostgres(); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	// 执行操作
	switch *action {
	case "reset":
		resetDatabase()
	case "init":
		initDatabase()
	default:
		log.Fatalf("未知操作: %s", *action)
	}
}

// showHelp 显示帮助信息
func showHelp() {
	log.Println("TriviaStorm 数据库管理工具")
	log.Println("")
	log.Println("用法:")
	log.Println("  go run scripts/db_manager -action=<操作> [-config=<配置文件>]")
	log.Println("")
	log.Println("操作:")
	log.Println("  reset  - 重置数据库（删除所有表和数据）")
	log.Println("  init   - 初始化数据库（创建表结构）")
	log.Println("  help   - 显示此帮助信息")
	log.Println("")
	log.Println("示例:")
	log.Println("  go run ./scripts/db_manager -action=reset")
	log.Println("  go run ./scripts/db_manager -action=init")
}

// resetDatabase 重置数据库
func resetDatabase() {
	log.Println("⚠️  正在重置数据库...")
	log.Println("⚠️  这将删除所有表和数据！")

	// 删除所有表和视图的SQL
	resetSQL := `
-- 删除视图
DROP VIEW IF EXISTS leaderboard CASCADE;

-- 删除表（按依赖关系顺序）
DROP TABLE IF EXISTS session_results CASCADE;
DROP TABLE IF EXISTS session_records CASCADE;
DROP TABLE IF EXISTS player_stats CASCADE;
DROP TABLE IF EXISTS accounts CASCADE;
`

	_, err := db.DB.Exec(resetSQL)
	if err != nil {
		log.Fatalf("重置数据库失败: %v", err)
	}

	log.Println("✅ 数据库重置完成")
}

// initDatabase 初始化数据库
func initDatabase() {
	log.Println("🚀 正在初始化数据库...")

	// 使用统一的表结构创建所有表
	if err := db.InitAllTables(); err != nil {
		log.Fatalf("初始化数据库表失败: %v", err)
	}

	log.Println("✅ 数据库初始化完成")
	log.Println("")
	log.Println("📋 已创建的表:")
	log.Println("  - accounts (账号表)")
	log.Println("  - player_stats (玩家累计统计表)")
	log.Println("  - session_records (对局记录表)")
	log.Println("  - session_results (玩家单局结果表)")
	log.Println("  - leaderboard (排行榜视图)")
	log.Println("")
	log.Println("💡 提示: 使用以下命令初始化测试数据:")
	log.Println("  go run ./scripts/init_data -config=config/config.yaml")
}
