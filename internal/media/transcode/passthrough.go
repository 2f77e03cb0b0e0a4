package transcode

import (
	"context"
	"fmt"
	"os"
)

// Passthrough 原样复制：降级链的最后一环，保证媒体永远不丢失
type Passthrough struct{}

func (p *Passthrough) Name() string { return "passthrough" }

// Compress 直接复制输入到输出，不做任何压缩
func (p *Passthrough) Compress(ctx context.Context, inPath string, outPath string, targetSizeMB float64) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
