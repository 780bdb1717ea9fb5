package handler

import (
	"nickchat/internal/app/bridge"
	"nickchat/internal/configs"
)

// AppDeps bundles what the HTTP handlers need.
type AppDeps struct {
	Manager *bridge.Manager
	Config  *configs.AppConfig
}
