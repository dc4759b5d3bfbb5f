package storage

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Platform 运行平台
type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

// NativeShellEnv 由原生外壳设置，表示运行在设备上
const NativeShellEnv = "IMAGE_STORE_NATIVE_SHELL"

func (p Platform) String() string {
	return string(p)
}

// Detect 在启动时确定平台，auto 时根据外壳环境变量和操作系统判断
func Detect(setting string) (Platform, error) {
	return detect(setting, os.Getenv(NativeShellEnv), runtime.GOOS)
}

func detect(setting, shellEnv, goos string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "native":
		return PlatformNative, nil
	case "web":
		return PlatformWeb, nil
	case "", "auto":
		if shellEnv != "" || goos == "android" || goos == "ios" {
			return PlatformNative, nil
		}
		return PlatformWeb, nil
	default:
		return "", fmt.Errorf("unknown platform: %s", setting)
	}
}
