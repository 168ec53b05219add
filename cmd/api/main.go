package main

import (
	"fmt"

	"gatherly-backend/internal/app"
	"gatherly-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

var fiberApp *fiber.App
var appCfg *config.Config

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	appCfg = cfg
	fiberApp, err = app.CreateApp(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}
}

func main() {
	fmt.Printf("Server running at http://localhost:%s\n", appCfg.Port)
	fmt.Printf("Health check: http://localhost:%s/health/json\n", appCfg.Port)
	fmt.Println("---")

	if err := fiberApp.Listen(":" + appCfg.Port); err != nil {
		panic(err)
	}
}
