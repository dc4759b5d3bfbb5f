package imagestore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency 批量保存的并发上限
const DefaultBatchConcurrency = 4

// SaveBatch 并发保存多张图片，单个文件失败不影响其他文件
func (s *Service) SaveBatch(ctx context.Context, files []File, category string, doCompress bool) ([]SaveResult, error) {
	results := make([]SaveResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultBatchConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			result := SaveResult{FileName: file.Name}
			path, err := s.Save(gctx, file, category, doCompress)
			if err != nil {
				result.Error = err.Error()
				result.Err = err
			} else {
				result.Path = path
			}
			// 每个协程只写自己的下标
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch save failed: %w", err)
	}
	return results, nil
}
