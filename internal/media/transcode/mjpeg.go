package transcode

import (
	"bufio"
	"bytes"
	"io"
)

// JPEG 标记字节。熵编码数据中 0xFF 总是以 0xFF00 填充出现，
// 因此在字节流中直接扫描 SOI/EOI 即可切分帧
const (
	jpegMarker = 0xFF
	jpegSOI    = 0xD8
	jpegEOI    = 0xD9
)

// FrameReader 从 MJPEG 字节流中逐帧读取完整 JPEG
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader 创建 MJPEG 帧读取器
func NewFrameReader(r *bufio.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// Next 返回下一帧完整 JPEG 字节，流结束时返回 io.EOF
func (fr *FrameReader) Next() ([]byte, error) {
	// 跳到帧起始标记 SOI
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != jpegMarker {
			continue
		}
		next, err := fr.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if next == jpegSOI {
			break
		}
		// 非 SOI 的标记，回退一个字节继续扫描（处理 FFFF 序列）
		if next == jpegMarker {
			if err := fr.r.UnreadByte(); err != nil {
				return nil, err
			}
		}
	}

	frame := []byte{jpegMarker, jpegSOI}
	prev := byte(0)
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		frame = append(frame, b)
		if prev == jpegMarker && b == jpegEOI {
			return frame, nil
		}
		prev = b
	}
}

// SplitFrames 把整段 MJPEG 字节切分为帧列表
func SplitFrames(data []byte) [][]byte {
	fr := NewFrameReader(bufio.NewReader(bytes.NewReader(data)))

	var frames [][]byte
	for {
		frame, err := fr.Next()
		if err != nil {
			return frames
		}
		frames = append(frames, frame)
	}
}
