// main.go

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacl-coder/TriviaStorm-Server/config"
	"github.com/jacl-coder/TriviaStorm-Server/internal/gateway"
	"github.com/jacl-coder/TriviaStorm-Server/internal/match"
	"github.com/jacl-coder/TriviaStorm-Server/internal/trivia"
	"github.com/jacl-coder/TriviaStorm-Server/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	serviceType := flag.String("service", "all", "服务类型 (trivia, match, gateway, all)")
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

	// 初始化Redis连接
	if err := db.InitRedis(); err != nil {
		log.Fatalf("初始化Redis失败: %v", err)
	}
	defer db.CloseRedis()

	// 根据服务类型启动不同的服务
	switch *serviceType {
	case "trivia":
		startTriviaServer()
	case "match":
		startMatchServer()
	case "gateway":
		startGatewayServer()
	case "all":
		startAllServices()
	default:
		log.Fatalf("未知的服务类型: %s", *serviceType)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("接收到关闭信号，正在关闭服务器...")

	log.Println("服务器已安全关闭")
}

// startTriviaServer 启动答题服务器
func startTriviaServer() {
	// 创建答题服务器
	server := trivia.NewTriviaServer(&config.GlobalConfig)

	// 启动服务器
	if err := server.Start(); err != nil {
		log.Fatalf("启动答题服务器失败: %v", err)
	}

	log.Println("答题服务器已启动")
}

// startMatchServer 启动匹配服务器
func startMatchServer() {
	// 创建答题服务器（匹配服务需要对局控制器引用）
	triviaServer := trivia.NewTriviaServer(&config.GlobalConfig)

	// 创建匹配服务
	matchService := match.NewMatchService(&config.GlobalConfig, triviaServer.Controller())

	// 启动匹配服务
	if err := matchService.Start(); err != nil {
		log.Fatalf("启动匹配服务失败: %v", err)
	}

	log.Println("匹配服务已启动")
}

// startGatewayServer 启动网关服务器
func startGatewayServer() {
	// 创建网关服务
	gatewayServer := gateway.NewGateway(&config.GlobalConfig)

	// 启动网关服务
	if err := gatewayServer.Start(); err != nil {
		log.Fatalf("启动网关服务失败: %v", err)
	}

	log.Println("网关服务已启动")
}

// startAllServices 启动所有服务
func startAllServices() {
	// 创建答题服务器
	triviaServer := trivia.NewTriviaServer(&config.GlobalConfig)

	// 启动答题服务器
	if err := triviaServer.Start(); err != nil {
		log.Fatalf("启动答题服务器失败: %v", err)
	}

	// 创建匹配服务，复用同一个对局控制器
	matchService := match.NewMatchService(&config.GlobalConfig, triviaServer.Controller())

	// 启动匹配服务
	if err := matchService.Start(); err != nil {
		log.Fatalf("启动匹配服务失败: %v", err)
	}

	// 创建网关服务
	gatewayServer := gateway.NewGateway(&config.GlobalConfig)

	// 启动网关服务
	if err := gatewayServer.Start(); err != nil {
		log.Fatalf("启动网关服务失败: %v", err)
	}

	log.Println("所有服务已启动")
}
