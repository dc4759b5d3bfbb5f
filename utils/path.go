package utils

import (
	"os"
	"path/filepath"
)

// GetExecutableDir 获取可执行文件所在目录
func GetExecutableDir() string {
	exePath, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exePath)
}

// GetDataDir 数据目录：IMAGE_STORE_DATA_DIR 优先，否则为可执行文件旁的 data 目录
func GetDataDir() string {
	if dir := os.Getenv("IMAGE_STORE_DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(GetExecutableDir(), "data")
}
