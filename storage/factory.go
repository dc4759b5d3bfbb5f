package storage

import (
	"fmt"

	"github.com/anoixa/facility-image-store/storage/mirror"
	"github.com/anoixa/facility-image-store/storage/native"
	"github.com/rs/zerolog/log"
)

// Dependencies 构造后端所需的组件，只会用到所选平台对应的部分
type Dependencies struct {
	// Native 原生平台的文件 API
	Native *native.Filesystem
	// Store web 平台的键值存储
	Store ObjectStore
	// Mirror web 平台的可选镜像
	Mirror mirror.Mirror
}

// NewBackend 为平台创建唯一的存储后端
func NewBackend(platform Platform, deps Dependencies) (Backend, error) {
	var backend Backend
	switch platform {
	case PlatformNative:
		if deps.Native == nil {
			return nil, fmt.Errorf("native platform requires a filesystem")
		}
		backend = NewNativeBackend(deps.Native)
	case PlatformWeb:
		if deps.Store == nil {
			return nil, fmt.Errorf("web platform requires an object store")
		}
		backend = NewWebBackend(deps.Store, deps.Mirror)
	default:
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}

	log.Info().Str("platform", platform.String()).Str("backend", backend.Name()).Msg("Storage backend selected")
	return backend, nil
}
