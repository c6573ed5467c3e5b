package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	maxConcurrentLoads = 3
	drainInterval      = 500 * time.Millisecond
	requestTimeout     = 60 * time.Second
	userAgent          = "VidLoader/1.0"
)

var (
	dataDir = filepath.Join(xdg.UserDirs.Videos, "VidLoader")
	dbPath  = filepath.Join(xdg.DataHome, configFileName, "vidloader.db")
	logPath = filepath.Join(xdg.StateHome, configFileName, "vidloader.log")
)
